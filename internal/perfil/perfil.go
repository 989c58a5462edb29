// Package perfil scores the investor-profile questionnaire (perfil inversor).
package perfil

import (
	"fmt"
	"strings"
)

type Classification string

const (
	Conservador Classification = "CONSERVADOR"
	Moderado    Classification = "MODERADO"
	Agresivo    Classification = "AGRESIVO"
)

const (
	conservadorMax = 10
	moderadoMax    = 20
)

// Classify maps a questionnaire score to a risk classification.
func Classify(score int) Classification {
	switch {
	case score <= conservadorMax:
		return Conservador
	case score <= moderadoMax:
		return Moderado
	default:
		return Agresivo
	}
}

type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Score int    `json:"score"`
}

type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

func (q Question) option(optionID string) (Option, bool) {
	for _, o := range q.Options {
		if o.ID == optionID {
			return o, true
		}
	}
	return Option{}, false
}

// Questionnaire is the fixed question set every applicant answers, in display order.
var Questionnaire = []Question{
	{
		ID:   "horizonte",
		Text: "¿Durante cuánto tiempo planea mantener su inversión?",
		Options: []Option{
			{ID: "menos_1", Label: "Menos de 1 año", Score: 1},
			{ID: "1_a_3", Label: "Entre 1 y 3 años", Score: 2},
			{ID: "3_a_5", Label: "Entre 3 y 5 años", Score: 3},
			{ID: "mas_5", Label: "Más de 5 años", Score: 4},
		},
	},
	{
		ID:   "objetivo",
		Text: "¿Cuál es el objetivo principal de su inversión?",
		Options: []Option{
			{ID: "preservar", Label: "Preservar el capital", Score: 1},
			{ID: "renta", Label: "Obtener una renta periódica", Score: 2},
			{ID: "crecimiento", Label: "Crecimiento moderado del capital", Score: 3},
			{ID: "maximizar", Label: "Maximizar la rentabilidad", Score: 4},
		},
	},
	{
		ID:   "experiencia",
		Text: "¿Qué experiencia tiene invirtiendo en el mercado de capitales?",
		Options: []Option{
			{ID: "ninguna", Label: "Ninguna", Score: 1},
			{ID: "plazo_fijo", Label: "Plazos fijos y fondos money market", Score: 2},
			{ID: "bonos", Label: "Bonos y fondos comunes", Score: 3},
			{ID: "acciones", Label: "Acciones, derivados y cauciones", Score: 4},
		},
	},
	{
		ID:   "tolerancia",
		Text: "Si su cartera cayera un 20% en un mes, ¿qué haría?",
		Options: []Option{
			{ID: "vender_todo", Label: "Vendería todo", Score: 1},
			{ID: "vender_parte", Label: "Vendería una parte", Score: 2},
			{ID: "mantener", Label: "Mantendría la posición", Score: 3},
			{ID: "comprar", Label: "Compraría más", Score: 4},
		},
	},
	{
		ID:   "patrimonio",
		Text: "¿Qué porcentaje de su patrimonio destinará a inversiones?",
		Options: []Option{
			{ID: "hasta_10", Label: "Hasta el 10%", Score: 1},
			{ID: "10_a_25", Label: "Entre el 10% y el 25%", Score: 2},
			{ID: "25_a_50", Label: "Entre el 25% y el 50%", Score: 3},
			{ID: "mas_50", Label: "Más del 50%", Score: 4},
		},
	},
	{
		ID:   "ingresos",
		Text: "¿Cómo describiría la estabilidad de sus ingresos?",
		Options: []Option{
			{ID: "inestables", Label: "Inestables o en descenso", Score: 1},
			{ID: "estables", Label: "Estables", Score: 2},
			{ID: "crecientes", Label: "Estables y en crecimiento", Score: 3},
			{ID: "holgados", Label: "Holgados, con capacidad de ahorro", Score: 4},
		},
	},
}

type Answer struct {
	QuestionID string `json:"pregunta"`
	OptionID   string `json:"opcion"`
}

// Perfil is a completed, scored questionnaire.
type Perfil struct {
	Answers        []Answer       `json:"respuestas"`
	Score          int            `json:"puntaje"`
	Classification Classification `json:"clasificacion"`
}

type AnswerErrorKind string

const (
	ErrUnknownQuestion AnswerErrorKind = "unknown_question"
	ErrUnknownOption   AnswerErrorKind = "unknown_option"
	ErrDuplicateAnswer AnswerErrorKind = "duplicate_answer"
	ErrMissingAnswer   AnswerErrorKind = "missing_answer"
)

type AnswerError struct {
	Kind       AnswerErrorKind `json:"kind"`
	QuestionID string          `json:"pregunta"`
	OptionID   string          `json:"opcion,omitempty"`
	Message    string          `json:"message"`
}

func (e AnswerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// AnswerErrors lists every problem found in a submitted questionnaire.
type AnswerErrors []AnswerError

func (e AnswerErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, a := range e {
		msgs = append(msgs, a.Error())
	}
	return strings.Join(msgs, "; ")
}

// Evaluate scores answers against Questionnaire. Every question must be
// answered exactly once; all problems are reported together.
func Evaluate(answers []Answer) (*Perfil, error) {
	return evaluate(Questionnaire, answers)
}

func evaluate(questions []Question, answers []Answer) (*Perfil, error) {
	var errs AnswerErrors
	answered := make(map[string]bool, len(answers))
	score := 0

	for _, a := range answers {
		q, ok := findQuestion(questions, a.QuestionID)
		if !ok {
			errs = append(errs, AnswerError{Kind: ErrUnknownQuestion, QuestionID: a.QuestionID,
				Message: fmt.Sprintf("question %q does not exist", a.QuestionID)})
			continue
		}
		if answered[a.QuestionID] {
			errs = append(errs, AnswerError{Kind: ErrDuplicateAnswer, QuestionID: a.QuestionID,
				Message: fmt.Sprintf("question %q answered more than once", a.QuestionID)})
			continue
		}
		answered[a.QuestionID] = true
		opt, ok := q.option(a.OptionID)
		if !ok {
			errs = append(errs, AnswerError{Kind: ErrUnknownOption, QuestionID: a.QuestionID, OptionID: a.OptionID,
				Message: fmt.Sprintf("option %q is not valid for question %q", a.OptionID, a.QuestionID)})
			continue
		}
		score += opt.Score
	}
	for _, q := range questions {
		if !answered[q.ID] {
			errs = append(errs, AnswerError{Kind: ErrMissingAnswer, QuestionID: q.ID,
				Message: fmt.Sprintf("question %q is unanswered", q.ID)})
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return &Perfil{
		Answers:        append([]Answer(nil), answers...),
		Score:          score,
		Classification: Classify(score),
	}, nil
}

func findQuestion(questions []Question, questionID string) (Question, bool) {
	for _, q := range questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return Question{}, false
}
