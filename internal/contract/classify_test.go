package contract_test

import (
	"testing"

	"github.com/contractreg/contractreg/internal/contract"
	"github.com/contractreg/contractreg/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestClassify_PropertyAddedOptionalIsBackwardCompatibleMinor(t *testing.T) {
	changes := []contract.Change{
		{Path: "$.properties.nickname", Kind: contract.PropertyAdded, PropertyRequired: false},
	}
	c := contract.NewClassifier()

	severity, breaking := c.Classify(changes, domain.ModeBackward)
	require.Equal(t, domain.ChangeMinor, severity)
	require.Empty(t, breaking)
}

func TestClassify_PropertyAddedRequiredIsMajorUnderBackward(t *testing.T) {
	changes := []contract.Change{
		{Path: "$.properties.id", Kind: contract.PropertyAdded, PropertyRequired: true},
	}
	c := contract.NewClassifier()

	severity, breaking := c.Classify(changes, domain.ModeBackward)
	require.Equal(t, domain.ChangeMajor, severity)
	require.Len(t, breaking, 1)
}

func TestClassify_ConstraintOnlyChangeIsPatch(t *testing.T) {
	changes := []contract.Change{
		{Path: "$#maximum", Kind: contract.ConstraintRelaxed},
	}
	c := contract.NewClassifier()

	severity, breaking := c.Classify(changes, domain.ModeBackward)
	require.Equal(t, domain.ChangePatch, severity)
	require.Empty(t, breaking)
}

func TestClassify_NoneModeIsNeverBreaking(t *testing.T) {
	changes := []contract.Change{
		{Path: "$.properties.id", Kind: contract.PropertyRemoved},
		{Path: "$.properties.x", Kind: contract.TypeChanged},
	}
	c := contract.NewClassifier()

	severity, breaking := c.Classify(changes, domain.ModeNone)
	require.Equal(t, domain.ChangeMinor, severity)
	require.Empty(t, breaking)
}

func TestClassify_NonMajorImpliesEmptyBreaking(t *testing.T) {
	// Spec property 5: whenever severity != major, breaking must be empty.
	modes := []domain.CompatibilityMode{domain.ModeBackward, domain.ModeForward, domain.ModeFull, domain.ModeNone}
	kinds := []contract.ChangeKind{
		contract.ConstraintTightened, contract.ConstraintRelaxed,
		contract.DefaultAdded, contract.DefaultRemoved, contract.DefaultChanged,
	}
	c := contract.NewClassifier()
	for _, mode := range modes {
		for _, k := range kinds {
			severity, breaking := c.Classify([]contract.Change{{Path: "$#x", Kind: k}}, mode)
			if severity != domain.ChangeMajor {
				require.Empty(t, breaking, "mode=%s kind=%s", mode, k)
			}
		}
	}
}

func TestClassify_EmptyChangeListIsPatch(t *testing.T) {
	c := contract.NewClassifier()
	severity, breaking := c.Classify(nil, domain.ModeFull)
	require.Equal(t, domain.ChangePatch, severity)
	require.Empty(t, breaking)
}
