package ownership

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	id "apertura/pkg/domain"
)

var hundred = decimal.NewFromInt(100)

// Config holds the tunables of the validator.
type Config struct {
	// PercentTolerance is added to 100 before comparing a corporate node's
	// summed shareholder percentages, absorbing rounding in declared stakes.
	PercentTolerance decimal.Decimal
	// MaxDepth bounds corporate nesting. The root is at depth 1; a corporate
	// node deeper than MaxDepth fails validation. Individual shareholders
	// terminate the recursion and may sit one level below the limit.
	MaxDepth int
}

// DefaultConfig returns a 0.5 percentage-point tolerance and a depth of 5.
func DefaultConfig() Config {
	return Config{
		PercentTolerance: decimal.RequireFromString("0.5"),
		MaxDepth:         5,
	}
}

// Report summarizes a tree that passed validation.
type Report struct {
	NodesVisited    int `json:"nodes_visited"`
	MaxDepth        int `json:"max_depth"`
	CorporateCount  int `json:"corporate_count"`
	IndividualCount int `json:"individual_count"`
}

// Validator checks an ownership tree. It is stateless and safe for concurrent use.
type Validator struct {
	cfg Config
}

func NewValidator(cfg Config) *Validator {
	defaults := DefaultConfig()
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = defaults.MaxDepth
	}
	if cfg.PercentTolerance.IsNegative() {
		cfg.PercentTolerance = decimal.Zero
	}
	return &Validator{cfg: cfg}
}

func (v *Validator) Config() Config {
	return v.cfg
}

// Validate walks the tree depth-first, pre-order, and returns either a Report
// or ValidationErrors listing every violation found. It never stops at the
// first violation and never mutates the tree.
func (v *Validator) Validate(root *Node) (*Report, error) {
	if root == nil {
		return nil, ValidationErrors{{Kind: ErrMissingRoot, Message: "applicant is required"}}
	}
	w := &walker{cfg: v.cfg}
	var chain []id.AccionistaID
	if root.ID != nil {
		chain = append(chain, *root.ID)
	}
	w.visit(root, Path{}, 1, chain)
	if len(w.errs) > 0 {
		return nil, w.errs
	}
	return &w.report, nil
}

type walker struct {
	cfg    Config
	report Report
	errs   ValidationErrors
}

func (w *walker) fail(e ValidationError) {
	w.errs = append(w.errs, e)
}

// visit checks n at depth and recurses into its shareholders. chain holds the
// persisted IDs of n and all its ancestors.
func (w *walker) visit(n *Node, path Path, depth int, chain []id.AccionistaID) {
	w.report.NodesVisited++
	if depth > w.report.MaxDepth {
		w.report.MaxDepth = depth
	}
	nodeID := nodeIDString(n)

	switch n.Tipo {
	case KindIndividual:
		w.report.IndividualCount++
		if n.Individual == nil {
			w.fail(ValidationError{Kind: ErrPayloadMismatch, Path: path, NodeID: nodeID,
				Message: "individual node has no persona_humana payload"})
			return
		}
		w.checkIndividual(n.Individual, path, nodeID)
	case KindCorporate:
		w.report.CorporateCount++
		if n.Corporate == nil {
			w.fail(ValidationError{Kind: ErrPayloadMismatch, Path: path, NodeID: nodeID,
				Message: "corporate node has no persona_juridica payload"})
			return
		}
		if depth > w.cfg.MaxDepth {
			w.fail(ValidationError{Kind: ErrDepthExceeded, Path: path, NodeID: nodeID,
				Message: fmt.Sprintf("corporate nesting depth %d exceeds the limit of %d", depth, w.cfg.MaxDepth)})
			return
		}
		w.checkCorporate(n, path, depth, chain, nodeID)
	default:
		w.fail(ValidationError{Kind: ErrPayloadMismatch, Path: path, NodeID: nodeID, Field: "tipo",
			Message: fmt.Sprintf("unknown node kind %q", n.Tipo)})
	}
}

func (w *walker) checkCorporate(n *Node, path Path, depth int, chain []id.AccionistaID, nodeID string) {
	corp := n.Corporate
	for _, e := range evaluateRules(corp.Fiscal, FiscalRules, "datos_fiscales", path, nodeID) {
		w.fail(e)
	}

	children := corp.Accionistas
	if len(children) == 0 {
		if !corp.AccionistasDesconocidos {
			w.fail(ValidationError{Kind: ErrOwnershipUndeclared, Path: path, Field: "accionistas", NodeID: nodeID,
				Message: "corporate entity must declare its shareholders or flag them as unknown"})
		}
		return
	}

	sum := decimal.Zero
	for i, child := range children {
		if child == nil {
			continue
		}
		p := child.Participation()
		if p.IsNegative() || p.GreaterThan(hundred) {
			w.fail(ValidationError{Kind: ErrPercentageOutOfRange, Path: path.Child(i, child),
				Field: "datos_principales.porcentaje", NodeID: nodeIDString(child),
				Message: fmt.Sprintf("participation %s must be between 0 and 100", p.String())})
		}
		sum = sum.Add(p)
	}
	if limit := hundred.Add(w.cfg.PercentTolerance); sum.GreaterThan(limit) {
		w.fail(ValidationError{Kind: ErrPercentageExceeded, Path: path, Field: "accionistas", NodeID: nodeID,
			Message: fmt.Sprintf("shareholder participations sum to %s, above 100", sum.String())})
	}

	for i, child := range children {
		childPath := path.Child(i, child)
		if child == nil {
			w.fail(ValidationError{Kind: ErrPayloadMismatch, Path: childPath, Message: "shareholder entry is empty"})
			continue
		}
		childChain := chain
		if child.ID != nil {
			if slices.Contains(chain, *child.ID) {
				// chain ends with the nearest ancestor carrying an id, which is
				// n itself unless n is still unsaved.
				related := chain[len(chain)-1].String()
				w.fail(ValidationError{Kind: ErrCycleDetected, Path: childPath,
					NodeID: child.ID.String(), RelatedID: related,
					Message: fmt.Sprintf("shareholder %s is declared as its own descendant under %s",
						child.ID.String(), displayID(nodeID))})
				continue
			}
			childChain = append(chain[:len(chain):len(chain)], *child.ID)
		}
		w.visit(child, childPath, depth+1, childChain)
	}
}

func (w *walker) checkIndividual(ind *Individual, path Path, nodeID string) {
	for _, e := range evaluateRules(ind.Declaraciones, DeclarationRules, "declaraciones", path, nodeID) {
		w.fail(e)
	}
	for _, e := range evaluateRules(ind.Fiscal, FiscalRules, "datos_fiscales", path, nodeID) {
		w.fail(e)
	}
	if ind.Declaraciones.RequiresKYC() {
		if strings.TrimSpace(ind.Personal.TipoDocumento) == "" {
			w.fail(ValidationError{Kind: ErrMissingField, Path: path, Field: "datos_personales.tipo_documento", NodeID: nodeID,
				Message: "identity document type is required when a declaration is made"})
		}
		if strings.TrimSpace(ind.Personal.NumeroDocumento) == "" {
			w.fail(ValidationError{Kind: ErrMissingField, Path: path, Field: "datos_personales.numero_documento", NodeID: nodeID,
				Message: "identity document number is required when a declaration is made"})
		}
	}
}

func nodeIDString(n *Node) string {
	if n == nil || n.ID == nil {
		return ""
	}
	return n.ID.String()
}

func displayID(nodeID string) string {
	if nodeID == "" {
		return "an unsaved shareholder"
	}
	return nodeID
}
