package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"apertura/internal/accountreg"
	"apertura/internal/ownership"
	"apertura/internal/perfil"
	"apertura/internal/signature"
	"apertura/internal/signature/provider"
	"apertura/internal/solicitud/models"
	"apertura/internal/solicitud/service/mocks"
	"apertura/internal/solicitud/store"
	id "apertura/pkg/domain"
	dErrors "apertura/pkg/domain-errors"
	audit "apertura/pkg/platform/audit"
	"apertura/pkg/platform/audit/publishers/compliance"
	"apertura/pkg/platform/audit/publishers/ops"
	auditmemory "apertura/pkg/platform/audit/store/memory"
	"apertura/pkg/requestcontext"
)

var now = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

type ServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	store    *store.InMemory
	provider *mocks.MockSignatureProvider
	registry *mocks.MockAccountRegistry
	auditLog *auditmemory.InMemoryStore
	alertLog *auditmemory.InMemoryStore
	service  *Service

	owner    id.UserID
	operator id.UserID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = store.NewInMemory()
	s.provider = mocks.NewMockSignatureProvider(s.ctrl)
	s.registry = mocks.NewMockAccountRegistry(s.ctrl)
	s.auditLog = auditmemory.NewInMemoryStore()
	s.alertLog = auditmemory.NewInMemoryStore()
	s.owner = id.UserID(uuid.New())
	s.operator = id.UserID(uuid.New())

	s.service = New(s.store, ownership.NewValidator(ownership.DefaultConfig()), s.provider,
		WithAccountRegistry(s.registry),
		WithCompliancePublisher(compliance.New(s.auditLog)),
		WithAlertPublisher(ops.New(nil, ops.WithFallback(s.alertLog))),
		WithSecuritySink(s.auditLog),
	)
}

func (s *ServiceSuite) ownerCtx() context.Context {
	ctx := requestcontext.WithTime(context.Background(), now)
	return requestcontext.WithUserID(ctx, s.owner)
}

func (s *ServiceSuite) operatorCtx() context.Context {
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithUserID(ctx, s.operator)
	return requestcontext.WithRoles(ctx, []string{requestcontext.RoleOperador})
}

func corporateTitular(stakes ...string) *ownership.Node {
	root := ownership.NewCorporate(nil, ownership.Corporate{
		Principal: ownership.DatosPrincipalesJuridica{RazonSocial: "Acme SA", Email: "legales@acme.example.com"},
		Fiscal:    ownership.DatosFiscales{CUIT: "30-71234567-8"},
	})
	for _, stake := range stakes {
		root.AddChild(ownership.NewIndividual(nil, ownership.Individual{
			Principal: ownership.DatosPrincipales{Nombre: "Socio", Apellido: "Uno", Porcentaje: decimal.RequireFromString(stake)},
		}))
	}
	return root
}

func perfilAnswers() []perfil.Answer {
	answers := make([]perfil.Answer, 0, len(perfil.Questionnaire))
	for _, q := range perfil.Questionnaire {
		answers = append(answers, perfil.Answer{QuestionID: q.ID, OptionID: q.Options[0].ID})
	}
	return answers
}

// draft builds a corporate solicitud with every section filled in.
func (s *ServiceSuite) draft(stakes ...string) *models.Solicitud {
	ctx := s.ownerCtx()
	sol, err := s.service.Create(ctx, CreateCommand{Tipo: models.TipoCorporate})
	s.Require().NoError(err)
	_, err = s.service.UpdateTitular(ctx, sol.ID, corporateTitular(stakes...))
	s.Require().NoError(err)
	_, err = s.service.UpdatePerfil(ctx, sol.ID, PerfilCommand{Answers: perfilAnswers()})
	s.Require().NoError(err)
	for _, tipo := range models.RequiredDocuments(models.TipoCorporate) {
		_, err = s.service.AttachDocumento(ctx, sol.ID, models.Documento{Tipo: tipo, URL: "s3://docs/" + string(tipo)})
		s.Require().NoError(err)
	}
	sol, err = s.service.Get(ctx, sol.ID)
	s.Require().NoError(err)
	return sol
}

func threeSignerDocument() *signature.Document {
	return &signature.Document{
		ID:     "env-1",
		Estado: signature.Pendiente,
		Signers: []signature.SignerStatus{
			{ID: "s1", Email: "a@acme.example.com", Estado: signature.Pendiente},
			{ID: "s2", Email: "b@acme.example.com", Estado: signature.Pendiente},
			{ID: "s3", Email: "c@acme.example.com", Estado: signature.Pendiente},
		},
	}
}

func (s *ServiceSuite) submitted() *models.Solicitud {
	sol := s.draft("60", "40")
	s.provider.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(threeSignerDocument(), nil)
	sol, err := s.service.Submit(s.ownerCtx(), sol.ID, models.EstadoBorrador)
	s.Require().NoError(err)
	return sol
}

func (s *ServiceSuite) awaitingApproval() *models.Solicitud {
	sol := s.submitted()
	var err error
	for _, signer := range []string{"s1", "s2", "s3"} {
		sol, err = s.service.IngestSignerUpdate(context.Background(), sol.ID,
			signature.SignerStatus{ID: signer, Estado: signature.Completo, UpdatedAt: now})
		s.Require().NoError(err)
	}
	s.Require().Equal(models.EstadoPendienteAprobacion, sol.Estado)
	return sol
}

func (s *ServiceSuite) actions(solicitudID id.SolicitudID) []string {
	events, err := s.auditLog.ListBySolicitud(context.Background(), solicitudID)
	s.Require().NoError(err)
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Action)
	}
	return out
}

func (s *ServiceSuite) alerts(solicitudID id.SolicitudID) []audit.Event {
	events, err := s.alertLog.ListBySolicitud(context.Background(), solicitudID)
	s.Require().NoError(err)
	return events
}

func (s *ServiceSuite) TestCreate() {
	s.Run("opens a draft owned by the caller and records it", func() {
		sol, err := s.service.Create(s.ownerCtx(), CreateCommand{Tipo: models.TipoIndividual, ProductorID: " P-7 "})
		s.Require().NoError(err)

		s.Equal(models.EstadoBorrador, sol.Estado)
		s.Equal(s.owner, sol.UserID)
		s.Equal("P-7", sol.ProductorID)
		s.Equal([]string{string(audit.EventSolicitudCreated)}, s.actions(sol.ID))

		list, err := s.service.ListSummaries(s.ownerCtx(), SolicitudFilter{})
		s.Require().NoError(err)
		s.Require().Len(list, 1)
		s.Equal(sol.ID, list[0].ID)
	})

	s.Run("requires an authenticated caller", func() {
		_, err := s.service.Create(context.Background(), CreateCommand{Tipo: models.TipoIndividual})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("rejects an unknown tipo", func() {
		_, err := s.service.Create(s.ownerCtx(), CreateCommand{Tipo: "TRUST"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestAccessControl() {
	sol := s.draft("100")
	stranger := requestcontext.WithUserID(context.Background(), id.UserID(uuid.New()))

	_, err := s.service.Get(stranger, sol.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.Cancel(stranger, sol.ID, "", "no")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.Contains(s.actions(sol.ID), string(audit.EventAccessDenied))

	got, err := s.service.Get(s.operatorCtx(), sol.ID)
	s.Require().NoError(err)
	s.Equal(models.EstadoBorrador, got.Estado)
}

func (s *ServiceSuite) TestDraftEditing() {
	s.Run("titular kind must match tipo", func() {
		sol, err := s.service.Create(s.ownerCtx(), CreateCommand{Tipo: models.TipoIndividual})
		s.Require().NoError(err)

		_, err = s.service.UpdateTitular(s.ownerCtx(), sol.ID, corporateTitular("100"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("invalid questionnaire reports every answer error", func() {
		sol := s.draft("100")
		_, err := s.service.UpdatePerfil(s.ownerCtx(), sol.ID, PerfilCommand{Answers: []perfil.Answer{{QuestionID: "edad", OptionID: "x"}}})
		var answers perfil.AnswerErrors
		s.Require().True(errors.As(err, &answers))
		s.NotEmpty(answers)
	})

	s.Run("documents get an id", func() {
		sol := s.draft("100")
		s.Require().Len(sol.Documentos, 2)
		s.NotEmpty(sol.Documentos[0].ID)
		s.Equal(now, sol.Documentos[0].CargadoEn)
	})

	s.Run("sections are locked after submission", func() {
		sol := s.submitted()
		_, err := s.service.UpdateTitular(s.ownerCtx(), sol.ID, corporateTitular("100"))
		var lifecycle *models.LifecycleError
		s.True(errors.As(err, &lifecycle))
	})
}

func (s *ServiceSuite) TestValidate() {
	s.Run("reports every ownership violation", func() {
		sol := s.draft("60", "50")
		_, err := s.service.Validate(s.ownerCtx(), sol.ID)
		var verrs ownership.ValidationErrors
		s.Require().True(errors.As(err, &verrs))
		s.Equal(ownership.ErrPercentageExceeded, verrs[0].Kind)
	})

	s.Run("missing titular is a missing section", func() {
		sol, err := s.service.Create(s.ownerCtx(), CreateCommand{Tipo: models.TipoCorporate})
		s.Require().NoError(err)
		_, err = s.service.Validate(s.ownerCtx(), sol.ID)
		var missing *models.MissingSectionsError
		s.Require().True(errors.As(err, &missing))
		s.Equal([]models.Section{models.SectionTitular}, missing.Sections)
	})

	s.Run("valid tree returns its report", func() {
		sol := s.draft("60", "40")
		report, err := s.service.Validate(s.ownerCtx(), sol.ID)
		s.Require().NoError(err)
		s.NotNil(report)
	})
}

func (s *ServiceSuite) TestSubmit() {
	s.Run("sends the signers and waits for signatures", func() {
		sol := s.draft("60", "40")
		s.provider.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req provider.SubmitRequest) (*signature.Document, error) {
				s.Equal(sol.ID.String(), req.ExternalID)
				s.Equal("Acme SA", req.Titulo)
				s.Require().Len(req.Firmantes, 1)
				s.Equal("legales@acme.example.com", req.Firmantes[0].Email)
				return threeSignerDocument(), nil
			})

		got, err := s.service.Submit(s.ownerCtx(), sol.ID, "")
		s.Require().NoError(err)
		s.Equal(models.EstadoPendienteFirma, got.Estado)
		s.Equal("env-1", got.ProcesoFirmaID)
		s.Contains(s.actions(sol.ID), string(audit.EventSolicitudSubmitted))

		ids, err := s.service.PendingSignature(context.Background())
		s.Require().NoError(err)
		s.Contains(ids, sol.ID)
	})

	s.Run("invalid ownership never reaches the provider", func() {
		sol := s.draft("60", "50")
		_, err := s.service.Submit(s.ownerCtx(), sol.ID, models.EstadoBorrador)
		var verrs ownership.ValidationErrors
		s.True(errors.As(err, &verrs))
	})

	s.Run("incomplete draft lists missing sections", func() {
		sol, err := s.service.Create(s.ownerCtx(), CreateCommand{Tipo: models.TipoCorporate})
		s.Require().NoError(err)
		_, err = s.service.Submit(s.ownerCtx(), sol.ID, models.EstadoBorrador)
		var missing *models.MissingSectionsError
		s.Require().True(errors.As(err, &missing))
		s.Contains(missing.Sections, models.SectionPerfil)
	})

	s.Run("provider failure leaves the draft untouched", func() {
		sol := s.draft("60", "40")
		s.provider.EXPECT().Submit(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeBadGateway, "signature provider unavailable"))

		_, err := s.service.Submit(s.ownerCtx(), sol.ID, models.EstadoBorrador)
		s.True(dErrors.HasCode(err, dErrors.CodeBadGateway))

		got, err := s.service.Get(s.ownerCtx(), sol.ID)
		s.Require().NoError(err)
		s.Equal(models.EstadoBorrador, got.Estado)
		s.Equal(sol.Version, got.Version)
	})

	s.Run("stale expected estado is a concurrent modification", func() {
		sol := s.submitted()
		_, err := s.service.Cancel(s.ownerCtx(), sol.ID, models.EstadoBorrador, "")
		var concurrent *models.ConcurrentModificationError
		s.True(errors.As(err, &concurrent))
	})
}

func (s *ServiceSuite) TestSignatureIngestion() {
	s.Run("three signers unlock approval", func() {
		sol := s.submitted()

		for i, signer := range []string{"s1", "s2"} {
			got, err := s.service.IngestSignerUpdate(context.Background(), sol.ID,
				signature.SignerStatus{ID: signer, Estado: signature.Completo, UpdatedAt: now.Add(time.Duration(i) * time.Minute)})
			s.Require().NoError(err)
			s.Equal(models.EstadoPendienteFirma, got.Estado)
		}

		got, err := s.service.IngestSignerUpdate(context.Background(), sol.ID,
			signature.SignerStatus{ID: "s3", Estado: signature.Completo, UpdatedAt: now.Add(time.Hour)})
		s.Require().NoError(err)
		s.Equal(models.EstadoPendienteAprobacion, got.Estado)
		s.Equal(signature.Completed, got.SignatureStatus())
		s.Contains(s.actions(sol.ID), string(audit.EventSignatureCompleted))
	})

	s.Run("unknown signer raises an alert and changes nothing", func() {
		sol := s.submitted()

		_, err := s.service.IngestSignerUpdate(context.Background(), sol.ID,
			signature.SignerStatus{ID: "ghost", Estado: signature.Completo, UpdatedAt: now})
		var syncErr *signature.ProviderSyncError
		s.Require().True(errors.As(err, &syncErr))
		s.Equal(signature.SyncUnknownSigner, syncErr.Kind)

		alerts := s.alerts(sol.ID)
		s.Require().Len(alerts, 1)
		s.Equal(string(audit.EventProviderSyncFailed), alerts[0].Action)

		got, err := s.service.Get(s.ownerCtx(), sol.ID)
		s.Require().NoError(err)
		s.Equal(sol.Version, got.Version)
	})

	s.Run("canceled document cancels the solicitud", func() {
		sol := s.submitted()

		got, err := s.service.IngestDocumentStatus(context.Background(), sol.ID, signature.Cancelado, "vencido", now)
		s.Require().NoError(err)
		s.Equal(models.EstadoCancelada, got.Estado)
		s.Equal("firma cancelada: vencido", got.MotivoCancelacion)
		s.Contains(s.actions(sol.ID), string(audit.EventSignatureCanceled))
	})

	s.Run("draft without document is a sync fault", func() {
		sol := s.draft("100")
		_, err := s.service.IngestSignerUpdate(context.Background(), sol.ID,
			signature.SignerStatus{ID: "s1", Estado: signature.Completo, UpdatedAt: now})
		var syncErr *signature.ProviderSyncError
		s.Require().True(errors.As(err, &syncErr))
		s.Equal(signature.SyncNoDocument, syncErr.Kind)
	})
}

func (s *ServiceSuite) TestSyncSignatures() {
	s.Run("merges the provider snapshot", func() {
		sol := s.submitted()
		snapshot := threeSignerDocument()
		for i := range snapshot.Signers {
			snapshot.Signers[i].Estado = signature.Completo
			snapshot.Signers[i].UpdatedAt = now
		}
		s.provider.EXPECT().Fetch(gomock.Any(), "env-1").Return(snapshot, nil)

		got, err := s.service.SyncSignatures(context.Background(), sol.ID)
		s.Require().NoError(err)
		s.Equal(models.EstadoPendienteAprobacion, got.Estado)
	})

	s.Run("skips solicitudes no longer waiting", func() {
		sol := s.draft("100")
		got, err := s.service.SyncSignatures(context.Background(), sol.ID)
		s.Require().NoError(err)
		s.Equal(models.EstadoBorrador, got.Estado)
	})

	s.Run("mismatched snapshot raises an alert", func() {
		sol := s.submitted()
		snapshot := threeSignerDocument()
		snapshot.ID = "env-other"
		s.provider.EXPECT().Fetch(gomock.Any(), "env-1").Return(snapshot, nil)

		_, err := s.service.SyncSignatures(context.Background(), sol.ID)
		var syncErr *signature.ProviderSyncError
		s.Require().True(errors.As(err, &syncErr))
		s.Equal(signature.SyncDocumentMismatch, syncErr.Kind)
		s.Len(s.alerts(sol.ID), 1)
	})
}

func (s *ServiceSuite) TestApprove() {
	s.Run("registers the account", func() {
		sol := s.awaitingApproval()
		s.registry.EXPECT().Register(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req accountreg.Request) (string, error) {
				s.Equal(sol.ID.String(), req.SolicitudID)
				s.Equal(s.operator.String(), req.AprobadaPor)
				return "ACC-0001", nil
			})

		got, err := s.service.Approve(s.operatorCtx(), sol.ID, "")
		s.Require().NoError(err)
		s.Equal(models.EstadoAprobada, got.Estado)
		s.Equal("ACC-0001", got.NumeroCuenta)
		s.Require().NotNil(got.AprobadaPor)
		s.Equal(s.operator, *got.AprobadaPor)

		actions := s.actions(sol.ID)
		s.Contains(actions, string(audit.EventSolicitudApproved))
		s.Contains(actions, string(audit.EventAccountRegistered))
	})

	s.Run("registration failure keeps the approval and raises a critical alert", func() {
		sol := s.awaitingApproval()
		s.registry.EXPECT().Register(gomock.Any(), gomock.Any()).
			Return("", dErrors.New(dErrors.CodeBadGateway, "account registry unavailable"))

		got, err := s.service.Approve(s.operatorCtx(), sol.ID, models.EstadoPendienteAprobacion)
		s.Require().NoError(err)
		s.Equal(models.EstadoAprobada, got.Estado)
		s.Empty(got.NumeroCuenta)

		alerts := s.alerts(sol.ID)
		s.Require().Len(alerts, 1)
		s.Equal(string(audit.EventAccountRegistrationFailed), alerts[0].Action)
		s.Equal(audit.SeverityCritical, alerts[0].Severity)
	})

	s.Run("requires the operator role", func() {
		sol := s.awaitingApproval()
		_, err := s.service.Approve(s.ownerCtx(), sol.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("cannot approve a draft", func() {
		sol := s.draft("100")
		_, err := s.service.Approve(s.operatorCtx(), sol.ID, models.EstadoBorrador)
		var lifecycle *models.LifecycleError
		s.True(errors.As(err, &lifecycle))
	})
}

func (s *ServiceSuite) TestConcurrentApprove() {
	sol := s.awaitingApproval()
	s.registry.EXPECT().Register(gomock.Any(), gomock.Any()).Return("ACC-0002", nil).Times(1)

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.service.Approve(s.operatorCtx(), sol.ID, models.EstadoPendienteAprobacion)
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		var concurrent *models.ConcurrentModificationError
		switch {
		case err == nil:
			successes++
		case errors.As(err, &concurrent):
			conflicts++
		}
	}
	s.Equal(1, successes)
	s.Equal(1, conflicts)
}

func (s *ServiceSuite) TestRejectAndCancel() {
	s.Run("reject requires a reason", func() {
		sol := s.awaitingApproval()
		_, err := s.service.Reject(s.operatorCtx(), sol.ID, "", "  ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		got, err := s.service.Reject(s.operatorCtx(), sol.ID, "", "documentación ilegible")
		s.Require().NoError(err)
		s.Equal(models.EstadoRechazada, got.Estado)
		s.Equal("documentación ilegible", got.MotivoRechazo)
	})

	s.Run("owner cancels a draft", func() {
		sol := s.draft("100")
		got, err := s.service.Cancel(s.ownerCtx(), sol.ID, "", "desiste")
		s.Require().NoError(err)
		s.Equal(models.EstadoCancelada, got.Estado)
		s.Contains(s.actions(sol.ID), string(audit.EventSolicitudCanceled))
	})

	s.Run("terminal solicitudes cannot be canceled", func() {
		sol := s.draft("100")
		_, err := s.service.Cancel(s.ownerCtx(), sol.ID, "", "")
		s.Require().NoError(err)

		_, err = s.service.Cancel(s.ownerCtx(), sol.ID, "", "")
		var lifecycle *models.LifecycleError
		s.True(errors.As(err, &lifecycle))
	})
}

func (s *ServiceSuite) TestCapabilities() {
	sol := s.awaitingApproval()

	caps, err := s.service.Capabilities(s.ownerCtx(), sol.ID)
	s.Require().NoError(err)
	s.False(caps.CanApprove)
	s.True(caps.CanCancel)

	caps, err = s.service.Capabilities(s.operatorCtx(), sol.ID)
	s.Require().NoError(err)
	s.True(caps.CanApprove)
	s.True(caps.CanReject)
}

func (s *ServiceSuite) TestListSummaries() {
	mine := s.draft("100")
	other := requestcontext.WithUserID(requestcontext.WithTime(context.Background(), now.Add(time.Hour)), id.UserID(uuid.New()))
	theirs, err := s.service.Create(other, CreateCommand{Tipo: models.TipoIndividual})
	s.Require().NoError(err)

	list, err := s.service.ListSummaries(s.ownerCtx(), SolicitudFilter{})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(mine.ID, list[0].ID)

	list, err = s.service.ListSummaries(s.operatorCtx(), SolicitudFilter{})
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(theirs.ID, list[0].ID)

	_, err = s.service.ListSummaries(s.operatorCtx(), SolicitudFilter{Estado: "ARCHIVADA"})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestTranslate(t *testing.T) {
	svc := New(store.NewInMemory(), ownership.NewValidator(ownership.DefaultConfig()), nil)

	t.Run("store not found becomes a domain not found", func(t *testing.T) {
		_, err := svc.Get(requestcontext.WithUserID(context.Background(), id.UserID(uuid.New())), id.NewSolicitudID())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("deadline becomes timeout", func(t *testing.T) {
		err := svc.translate(context.DeadlineExceeded)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	})

	t.Run("unknown errors are internal", func(t *testing.T) {
		err := svc.translate(errors.New("disk on fire"))
		assert.Equal(t, dErrors.CodeInternal, dErrors.CodeOf(err))
	})
}
