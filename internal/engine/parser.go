package engine

import (
	"encoding/json"
	"fmt"

	"github.com/shaiso/Provisio/internal/domain"
)

// Допустимые типы шагов.
var validStepTypes = map[string]bool{
	"command":  true,
	"download": true,
}

// Допустимые типы idempotency check.
var validCheckTypes = map[string]bool{
	"path_exists":   true,
	"file_nonempty": true,
	"command":       true,
}

// Parse парсит PlanSpec из JSON и валидирует его.
func Parse(data []byte) (*domain.PlanSpec, error) {
	var spec domain.PlanSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}

	if err := Validate(&spec); err != nil {
		return nil, err
	}

	return &spec, nil
}

// Validate выполняет полную валидацию PlanSpec.
//
// Проверяет:
// - Наличие шагов
// - Уникальность ID шагов
// - Корректность типов шагов и checks
// - Наличие команды/URL в зависимости от типа
// - Валидность политики on_failure
// - Валидность зависимостей (depends_on)
//
// Циклы обнаруживает BuildOrder; вместе эти две проверки гарантируют,
// что некорректный план не запустит ни одной внешней команды.
func Validate(spec *domain.PlanSpec) error {
	if spec == nil || len(spec.Steps) == 0 {
		return ErrEmptySteps
	}

	stepIDs := make(map[string]bool)

	for i := range spec.Steps {
		step := &spec.Steps[i]

		if err := ValidateStep(step, stepIDs); err != nil {
			return err
		}
	}

	// Валидируем зависимости после того, как собраны все ID
	for i := range spec.Steps {
		step := &spec.Steps[i]

		for _, dep := range step.DependsOn {
			if !stepIDs[dep] {
				return NewValidationError(step.ID, "depends_on",
					fmt.Sprintf("depends on unknown step: %s", dep), ErrUnknownDependency)
			}
		}
	}

	return nil
}

// ValidateStep валидирует один шаг.
// stepIDs — уже встреченные ID шагов (для проверки уникальности).
func ValidateStep(step *domain.StepDef, stepIDs map[string]bool) error {
	if step.ID == "" {
		return NewValidationError("", "id", "step has empty ID", ErrEmptyStepID)
	}

	if stepIDs[step.ID] {
		return NewValidationError(step.ID, "id",
			fmt.Sprintf("duplicate step ID: %s", step.ID), ErrDuplicateStepID)
	}
	stepIDs[step.ID] = true

	if err := validateStepType(step); err != nil {
		return err
	}

	// Проверка self-dependency
	for _, dep := range step.DependsOn {
		if dep == step.ID {
			return NewValidationError(step.ID, "depends_on",
				"step depends on itself", ErrSelfDependency)
		}
	}

	if err := validateFailurePolicy(step); err != nil {
		return err
	}

	if step.Check != nil {
		if err := validateCheck(step); err != nil {
			return err
		}
	}

	return nil
}

// validateStepType проверяет тип шага и обязательные для типа поля.
func validateStepType(step *domain.StepDef) error {
	if step.Type == "" {
		return NewValidationError(step.ID, "type",
			"step has empty type", ErrUnknownStepType)
	}

	if !validStepTypes[step.Type] {
		return NewValidationError(step.ID, "type",
			fmt.Sprintf("unknown step type: %s", step.Type), ErrUnknownStepType)
	}

	switch step.Type {
	case "command":
		if len(step.Command) == 0 {
			return NewValidationError(step.ID, "command",
				"command step has no command", ErrMissingCommand)
		}
	case "download":
		if step.URL == "" || step.Dest == "" {
			return NewValidationError(step.ID, "url",
				"download step requires url and dest", ErrMissingURL)
		}
	}

	return nil
}

// validateFailurePolicy проверяет политику on_failure.
func validateFailurePolicy(step *domain.StepDef) error {
	switch step.OnFailure {
	case "", domain.OnFailureAbort, domain.OnFailureContinue:
		return nil
	default:
		return NewValidationError(step.ID, "on_failure",
			fmt.Sprintf("unknown on_failure policy: %s", step.OnFailure), ErrUnknownFailurePolicy)
	}
}

// validateCheck проверяет idempotency check шага.
func validateCheck(step *domain.StepDef) error {
	check := step.Check

	if !validCheckTypes[check.Type] {
		return NewValidationError(step.ID, "check",
			fmt.Sprintf("unknown check type: %s", check.Type), ErrUnknownCheckType)
	}

	switch check.Type {
	case "path_exists", "file_nonempty":
		if check.Path == "" {
			return NewValidationError(step.ID, "check",
				"check requires path", ErrUnknownCheckType)
		}
	case "command":
		if len(check.Command) == 0 {
			return NewValidationError(step.ID, "check",
				"check requires command", ErrUnknownCheckType)
		}
	}

	return nil
}

// IsValidStepType проверяет, является ли тип шага допустимым.
func IsValidStepType(stepType string) bool {
	return validStepTypes[stepType]
}
