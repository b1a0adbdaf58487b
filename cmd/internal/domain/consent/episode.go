// Package consent holds the completion rules shared by the content-opening and
// deletion episodes. It is pure: callers load records, ask for an Outcome and
// decide what to persist.
package consent

import "familynotes/cmd/internal/domain/entity"

type Outcome string

const (
	OutcomePending  Outcome = "pending"
	OutcomeApproved Outcome = "approved"
	OutcomeDeclined Outcome = "declined"
)

// Rule parameterizes an episode by how a decline is treated.
type Rule struct {
	Kind entity.ConsentKind

	// StopOnDecline ends the episode negatively at the first false vote.
	// Without it, a decline only settles the outcome once everyone answered.
	StopOnDecline bool
}

var (
	ContentRule  = Rule{Kind: entity.ConsentContent}
	DeletionRule = Rule{Kind: entity.ConsentDeletion, StopOnDecline: true}
)

func RuleFor(kind entity.ConsentKind) Rule {
	if kind == entity.ConsentDeletion {
		return DeletionRule
	}
	return ContentRule
}

type Tally struct {
	Total     int `json:"total_count"`
	Consented int `json:"consented_count"`
	Declined  int `json:"declined_count"`
	Pending   int `json:"pending_count"`
}

func Count(records []*entity.ConsentRecord) Tally {
	t := Tally{Total: len(records)}
	for _, r := range records {
		switch {
		case r.Consented == nil:
			t.Pending++
		case *r.Consented:
			t.Consented++
		default:
			t.Declined++
		}
	}
	return t
}

// Evaluate settles the outcome for a tally. An empty episode is never
// approved: unanimity over nobody is not consent.
func (r Rule) Evaluate(t Tally) Outcome {
	if t.Total == 0 {
		return OutcomePending
	}

	if t.Declined > 0 && (r.StopOnDecline || t.Pending == 0) {
		return OutcomeDeclined
	}

	if t.Pending > 0 {
		return OutcomePending
	}
	return OutcomeApproved
}

// Seed builds the ballot of a fresh episode: one row per active member, the
// initiator's row already resolved in favour.
func Seed(lifecycleID int64, kind entity.ConsentKind, episode int, members []*entity.FamilyMember, initiatorMemberID int64, now int64) []*entity.ConsentRecord {
	records := make([]*entity.ConsentRecord, 0, len(members))
	for _, m := range members {
		if !m.IsActive {
			continue
		}

		rec := &entity.ConsentRecord{
			LifecycleID:    lifecycleID,
			Kind:           kind,
			FamilyMemberID: m.ID,
			Episode:        episode,
			CreatedAt:      now,
		}

		if m.ID == initiatorMemberID {
			yes := true
			rec.Consented = &yes
			rec.AutoResolved = true
			rec.RespondedAt = &now
		}
		records = append(records, rec)
	}
	return records
}
