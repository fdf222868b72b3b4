package services

import (
	"fmt"
	"io"
	"jetlex_app_go/models"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Fallback answer when no active rule exists for the resulting level
const (
	DefaultDecisionResponsible = "No definido"
	DefaultDecisionHours       = 24
)

// specialCriteria always escalate to level 1, whatever the amount
var specialCriteria = map[string]bool{
	"nuevo_servicio":     true,
	"alianza":            true,
	"cambio_estrategico": true,
}

// DecisionOutcome is the answer to a classification query
type DecisionOutcome struct {
	Level            string `json:"nivel"`
	Responsible      string `json:"responsable"`
	RequiresConsult  bool   `json:"requiereConsulta"`
	MaxResponseHours int    `json:"tiempoMaximo"`
	Escalation       string `json:"escalamiento,omitempty"`
}

// DecisionMatrixFile is the on-disk layout of a matrix seed file
type DecisionMatrixFile struct {
	Rules []models.DecisionRule `yaml:"decisiones"`
}

// ClassifyDecision determines the authority level for an action and amount
func ClassifyDecision(db *gorm.DB, actionType string, amount *float64) (*DecisionOutcome, error) {
	if amount != nil && (*amount < 0 || math.IsNaN(*amount) || math.IsInf(*amount, 0)) {
		return nil, Validation("monto", "amount must be a non-negative number")
	}

	rules, err := ListActiveDecisionRules(db)
	if err != nil {
		return nil, err
	}

	outcome := classifyWithRules(rules, strings.TrimSpace(actionType), amount)
	decisionClassificationsTotal.WithLabelValues(outcome.Level).Inc()
	return outcome, nil
}

func classifyWithRules(rules []models.DecisionRule, actionType string, amount *float64) *DecisionOutcome {
	level := models.DecisionLevel3
	var matched *models.DecisionRule

	if amount != nil {
		matched = bestAmountMatch(rules, *amount)
		if matched != nil {
			level = matched.Level
		}
	}

	if specialCriteria[actionType] {
		level = models.DecisionLevel1
	}

	rule := matched
	if rule == nil || rule.Level != level {
		rule = firstRuleForLevel(rules, level)
	}

	outcome := &DecisionOutcome{
		Level:            level,
		Responsible:      DefaultDecisionResponsible,
		MaxResponseHours: DefaultDecisionHours,
	}
	if rule != nil {
		outcome.Responsible = rule.Responsible
		outcome.RequiresConsult = rule.RequiresConsult
		outcome.Escalation = rule.Escalation
		if rule.MaxResponseHours > 0 {
			outcome.MaxResponseHours = rule.MaxResponseHours
		}
	}
	return outcome
}

// bestAmountMatch picks one rule among those whose [min, max) range holds the
// amount: the narrowest bounded range wins, open ranges come last, then the
// higher minimum, then the more senior level.
func bestAmountMatch(rules []models.DecisionRule, amount float64) *models.DecisionRule {
	var candidates []*models.DecisionRule
	for i := range rules {
		if rules[i].Matches(amount) {
			candidates = append(candidates, &rules[i])
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		wi, wj := rangeWidth(candidates[i]), rangeWidth(candidates[j])
		if wi != wj {
			return wi < wj
		}
		mi, mj := lowerBound(candidates[i]), lowerBound(candidates[j])
		if mi != mj {
			return mi > mj
		}
		return candidates[i].Level < candidates[j].Level
	})
	return candidates[0]
}

func rangeWidth(r *models.DecisionRule) float64 {
	if r.MaxAmount == nil || r.MinAmount == nil {
		return math.Inf(1)
	}
	return *r.MaxAmount - *r.MinAmount
}

func lowerBound(r *models.DecisionRule) float64 {
	if r.MinAmount == nil {
		return math.Inf(-1)
	}
	return *r.MinAmount
}

// firstRuleForLevel returns the rule with the lowest minimum for a level.
// rules must already be sorted by level then minimum amount.
func firstRuleForLevel(rules []models.DecisionRule, level string) *models.DecisionRule {
	for i := range rules {
		if rules[i].Level == level {
			return &rules[i]
		}
	}
	return nil
}

// ListActiveDecisionRules returns the active matrix ordered by level then minimum amount
func ListActiveDecisionRules(db *gorm.DB) ([]models.DecisionRule, error) {
	var rules []models.DecisionRule
	err := db.Where("activo = ?", true).
		Order("nivel ASC").
		Order("monto_minimo IS NULL DESC").
		Order("monto_minimo ASC").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load decision matrix: %w", err)
	}
	return rules, nil
}

// ValidateDecisionRule checks a single matrix row
func ValidateDecisionRule(r *models.DecisionRule) error {
	if !models.IsValidDecisionLevel(r.Level) {
		return Validation("nivel", fmt.Sprintf("invalid decision level %q", r.Level))
	}
	if strings.TrimSpace(r.Criterion) == "" {
		return Validation("criterio", "criterion is required")
	}
	if strings.TrimSpace(r.Responsible) == "" {
		return Validation("responsable", "responsible is required")
	}
	if r.MinAmount != nil && *r.MinAmount < 0 {
		return Validation("montoMinimo", "minimum amount cannot be negative")
	}
	if r.MinAmount != nil && r.MaxAmount != nil && *r.MaxAmount <= *r.MinAmount {
		return Validation("montoMaximo", "maximum amount must be greater than minimum amount")
	}
	if r.MaxResponseHours <= 0 {
		return Validation("tiempoMaximoRespuesta", "response time must be positive")
	}
	return nil
}

// ReplaceDecisionMatrix deactivates the current matrix and activates the
// given rules in a single transaction
func ReplaceDecisionMatrix(db *gorm.DB, rules []models.DecisionRule) ([]models.DecisionRule, error) {
	if len(rules) == 0 {
		return nil, Validation("decisiones", "at least one rule is required")
	}
	fresh := make([]models.DecisionRule, len(rules))
	for i := range rules {
		r := rules[i]
		r.ID = ""
		r.Active = true
		r.Criterion = strings.TrimSpace(r.Criterion)
		r.Responsible = strings.TrimSpace(r.Responsible)
		if r.MaxResponseHours == 0 {
			r.MaxResponseHours = DefaultDecisionHours
		}
		if err := ValidateDecisionRule(&r); err != nil {
			return nil, err
		}
		fresh[i] = r
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.DecisionRule{}).
			Where("activo = ?", true).
			Update("activo", false).Error; err != nil {
			return fmt.Errorf("failed to deactivate decision matrix: %w", err)
		}
		if err := tx.Create(&fresh).Error; err != nil {
			return fmt.Errorf("failed to store decision matrix: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fresh, nil
}

// LoadDecisionRulesYAML parses a matrix seed document
func LoadDecisionRulesYAML(r io.Reader) ([]models.DecisionRule, error) {
	var file DecisionMatrixFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, Validation("decisiones", fmt.Sprintf("invalid decision matrix file: %v", err))
	}
	for i := range file.Rules {
		if file.Rules[i].MaxResponseHours == 0 {
			file.Rules[i].MaxResponseHours = DefaultDecisionHours
		}
		if err := ValidateDecisionRule(&file.Rules[i]); err != nil {
			return nil, err
		}
	}
	return file.Rules, nil
}

// SeedDecisionMatrixFromFile loads a matrix file and makes it the active
// matrix. When onlyIfEmpty is set an existing active matrix is left alone.
func SeedDecisionMatrixFromFile(db *gorm.DB, path string, onlyIfEmpty bool) (int, error) {
	if onlyIfEmpty {
		var count int64
		if err := db.Model(&models.DecisionRule{}).Where("activo = ?", true).Count(&count).Error; err != nil {
			return 0, err
		}
		if count > 0 {
			return 0, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open decision matrix file: %w", err)
	}
	defer f.Close()

	rules, err := LoadDecisionRulesYAML(f)
	if err != nil {
		return 0, err
	}
	stored, err := ReplaceDecisionMatrix(db, rules)
	if err != nil {
		return 0, err
	}
	return len(stored), nil
}
