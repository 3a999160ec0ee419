package service

import (
	"engage-service/internal/models"
)

// ComputeResults recomputes a poll's tally from the full response set. It is
// a pure full recomputation rather than an incremental counter, so a lost
// increment can never drift the stored tally away from the response rows;
// running it twice over the same rows yields identical output.
//
// totalVotes counts option selections for choice polls (a multiple-choice
// ballot picking three options contributes three), responses for rating and
// text polls. uniqueVoters always counts distinct voters.
//
// A stored option index outside [0, len(options)) is skipped. Validation
// rejects those at submission time; rows predating an option edit are simply
// not counted.
func ComputeResults(poll *models.Poll, responses []*models.PollResponse) ([]models.PollResult, int, int) {

	voters := make(map[string]struct{})
	totalVotes := 0

	switch poll.Type {
	case models.PollTypeRating:
		results := make([]models.PollResult, models.RatingScale)
		for i := 0; i < models.RatingScale; i++ {
			results[i] = models.PollResult{Rating: i + 1}
		}
		for _, resp := range responses {
			rating := resp.Response.Rating
			if rating < 1 || rating > models.RatingScale {
				continue
			}
			results[rating-1].Votes++
			totalVotes++
			voters[resp.VoterID] = struct{}{}
		}
		return results, totalVotes, len(voters)

	case models.PollTypeSingleChoice, models.PollTypeMultipleChoice:
		results := make([]models.PollResult, len(poll.Options))
		for i := range poll.Options {
			results[i] = models.PollResult{OptionIndex: i}
		}
		for _, resp := range responses {
			counted := false
			for _, idx := range resp.Response.SelectedOptions {
				if idx < 0 || idx >= len(poll.Options) {
					continue
				}
				results[idx].Votes++
				totalVotes++
				counted = true
			}
			if counted {
				voters[resp.VoterID] = struct{}{}
			}
		}
		return results, totalVotes, len(voters)

	case models.PollTypeText:
		for _, resp := range responses {
			if resp.Response.TextResponse == "" {
				continue
			}
			totalVotes++
			voters[resp.VoterID] = struct{}{}
		}
		return []models.PollResult{}, totalVotes, len(voters)
	}

	return []models.PollResult{}, 0, 0
}
