package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// HideQuorum is the minimum number of hide votes required before a pending
// report can auto-resolve. The hide tally must also hold a strict majority
// over the keep tally.
const HideQuorum = 5

// ReportStatus is the lifecycle state of a report. Pending is the initial
// state; resolved and rejected are terminal. Rejected is reserved for a
// future keep-quorum or manual-rejection path and is never produced by the
// vote tally itself.
type ReportStatus string

// Report lifecycle states
const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusResolved ReportStatus = "resolved"
	ReportStatusRejected ReportStatus = "rejected"
)

// VoteChoice is one of the two opposing positions on a pending report
type VoteChoice string

// Vote choices
const (
	VoteHide VoteChoice = "hide"
	VoteKeep VoteChoice = "keep"
)

// Valid reports whether the choice is one of the two known positions
func (c VoteChoice) Valid() bool {
	return c == VoteHide || c == VoteKeep
}

// Opposite returns the other choice
func (c VoteChoice) Opposite() VoteChoice {
	if c == VoteHide {
		return VoteKeep
	}
	return VoteHide
}

// ContentType values a report may target. Articles are the only entity the
// resolution trigger hides.
const (
	ContentTypeArticle = "article"
	ContentTypeComment = "comment"
)

// ReportVotes holds the two opposing voter sets. A user id appears in at
// most one of the two slices at any time.
type ReportVotes struct {
	Hide []string `bson:"hide" json:"hide"`
	Keep []string `bson:"keep" json:"keep"`
}

// NewReportVotes returns empty, non-nil vote sets. The slices must stay
// non-nil so they round-trip through bson as [] rather than null.
func NewReportVotes() ReportVotes {
	return ReportVotes{Hide: []string{}, Keep: []string{}}
}

// Apply returns the vote sets after userID casts choice: the user is removed
// from the opposite set if present and added to the chosen set if absent.
// Re-casting the same choice returns the sets unchanged, voter order
// included. The receiver is not mutated.
func (v ReportVotes) Apply(userID string, choice VoteChoice) ReportVotes {
	chosen := v.Hide
	if choice == VoteKeep {
		chosen = v.Keep
	}
	for _, id := range chosen {
		if id == userID {
			return v
		}
	}
	next := ReportVotes{
		Hide: removeVoter(v.Hide, userID),
		Keep: removeVoter(v.Keep, userID),
	}
	switch choice {
	case VoteHide:
		next.Hide = append(next.Hide, userID)
	case VoteKeep:
		next.Keep = append(next.Keep, userID)
	}
	return next
}

// HideWins evaluates the quorum rule against the current tally: at least
// HideQuorum hide votes and strictly more hide than keep votes. There is no
// symmetric rule for keep.
func (v ReportVotes) HideWins() bool {
	h := len(v.Hide)
	return h >= HideQuorum && h > len(v.Keep)
}

// Equal reports whether both vote sets match element for element. Used as
// the compare half of the compare-and-set vote update.
func (v ReportVotes) Equal(o ReportVotes) bool {
	if len(v.Hide) != len(o.Hide) || len(v.Keep) != len(o.Keep) {
		return false
	}
	for i := range v.Hide {
		if v.Hide[i] != o.Hide[i] {
			return false
		}
	}
	for i := range v.Keep {
		if v.Keep[i] != o.Keep[i] {
			return false
		}
	}
	return true
}

func removeVoter(voters []string, userID string) []string {
	out := make([]string, 0, len(voters))
	for _, id := range voters {
		if id != userID {
			out = append(out, id)
		}
	}
	return out
}

// Report represents a community flag against a piece of content
type Report struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	ContentID    string              `bson:"contentId" json:"contentId"`
	ContentType  string              `bson:"contentType" json:"contentType"`
	ReporterID   string              `bson:"reporterId" json:"reporterId"`
	ReporterName string              `bson:"reporterName" json:"reporterName"`
	Reason       string              `bson:"reason" json:"reason"`
	CreatedAt    primitive.DateTime  `bson:"createdAt" json:"createdAt"`
	Status       ReportStatus        `bson:"status" json:"status"`
	Votes        ReportVotes         `bson:"votes" json:"votes"`
	ResolvedAt   *primitive.DateTime `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
}
