package tailoring

import (
	"fmt"

	"github.com/jonathan/resume-pivot/internal/types"
)

// StepDefinition defines metadata for a tailoring step. Name is also the phase the step writes.
type StepDefinition struct {
	Name         string
	Dependencies []string
}

// StepRegistry lists the tailoring steps in execution order
var StepRegistry = []StepDefinition{
	{
		Name:         types.PhaseRequirements,
		Dependencies: []string{types.PhaseNormalize, types.PhaseSelectedRole},
	},
	{
		Name:         types.PhaseMapping,
		Dependencies: []string{types.PhaseNormalize, types.PhaseRequirements},
	},
	{
		Name:         types.PhaseBullets,
		Dependencies: []string{types.PhaseMapping},
	},
	{
		Name:         types.PhaseScoring,
		Dependencies: []string{types.PhaseMapping},
	},
	{
		Name:         types.PhaseDraft,
		Dependencies: []string{types.PhaseRequirements, types.PhaseMapping, types.PhaseBullets, types.PhaseScoring},
	},
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s: missing dependencies: %v", e.Step, e.MissingDependencies)
}

// ValidateDependencies checks that every phase a step reads is present on the run
func ValidateDependencies(run *types.Run, stepName string) error {
	def, ok := lookup(stepName)
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !run.HasPhase(dep) {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return &DependencyError{Step: stepName, MissingDependencies: missing}
	}
	return nil
}

// FirstMissing returns the first step whose phase has not been written yet, or "" when the
// run is fully tailored.
func FirstMissing(run *types.Run) string {
	for _, def := range StepRegistry {
		if !run.HasPhase(def.Name) {
			return def.Name
		}
	}
	return ""
}

func lookup(name string) (StepDefinition, bool) {
	for _, def := range StepRegistry {
		if def.Name == name {
			return def, true
		}
	}
	return StepDefinition{}, false
}
