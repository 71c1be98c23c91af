package reporter

import (
	"regexp"
	"strconv"

	"github.com/icfy/sizebot/internal/models"
)

// prRefPattern matches the "(#1234)" reference that squash-merge commit
// messages carry.
var prRefPattern = regexp.MustCompile(`\(#(\d+)\)`)

// MessagePRResolver derives the PR number from the push's commit message.
// When the message references several PRs, the last reference wins: for a
// squashed commit the subject line's own PR number comes after any numbers
// quoted from the description.
type MessagePRResolver struct{}

// Resolve implements PRResolver.
func (MessagePRResolver) Resolve(push *models.Push) (int, bool) {
	matches := prRefPattern.FindAllStringSubmatch(push.Message, -1)
	if len(matches) == 0 {
		return 0, false
	}

	num, err := strconv.Atoi(matches[len(matches)-1][1])
	if err != nil {
		return 0, false
	}
	return num, true
}
