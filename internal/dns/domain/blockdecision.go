package domain

// BlockDecision is the sinkhole verdict for one query name. MatchedRule,
// Source and Kind describe the rule that fired and are empty when Blocked
// is false.
type BlockDecision struct {
	Blocked     bool
	MatchedRule string
	Source      string
	Kind        BlockRuleKind
}

func (d BlockDecision) IsBlocked() bool { return d.Blocked }

// EmptyDecision is the allow verdict.
func EmptyDecision() BlockDecision { return BlockDecision{} }
