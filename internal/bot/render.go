package bot

import (
	"github.com/maxaizer/jobboard-bot/internal/board"
	"github.com/maxaizer/jobboard-bot/internal/domain/models"
	"strconv"
	"strings"
	"unicode/utf8"
)

const maxMessageLength = 4096

func renderJobList(state board.State) string {

	var sb strings.Builder
	sb.WriteString("Filters: " + state.Filters.String() + "\n\n")

	switch {
	case state.Loading():
		sb.WriteString("Loading...")
	case state.FetchMessage != "":
		sb.WriteString(state.FetchMessage)
	case len(state.Jobs) == 0:
		sb.WriteString("No jobs available")
	default:
		cards := make([]string, 0, len(state.Jobs))
		for _, job := range state.Jobs {
			cards = append(cards, renderJob(job))
		}
		sb.WriteString(strings.Join(cards, "\n\n"))
	}

	return sb.String()
}

func renderJob(job models.Job) string {
	lines := []string{
		job.Title,
		"Company: " + job.Company,
		"Location: " + job.Location,
		"Job Type: " + job.JobType,
		"Posting Date: " + job.PostingDate,
		"Tags: " + job.Tags.String(),
	}
	if job.ID != 0 {
		lines = append(lines, "/edit_"+renderID(job.ID)+"   /delete_"+renderID(job.ID))
	}
	return strings.Join(lines, "\n")
}

// splitMessage cuts text on blank lines, falling back to hard cuts for oversized paragraphs.
func splitMessage(text string, limit int) []string {

	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, paragraph := range strings.Split(text, "\n\n") {
		for len(paragraph) > limit {
			flush()
			cut := limit
			for cut > 0 && !utf8.RuneStart(paragraph[cut]) {
				cut--
			}
			chunks = append(chunks, paragraph[:cut])
			paragraph = paragraph[cut:]
		}

		separatorLen := 0
		if current.Len() > 0 {
			separatorLen = 2
		}
		if current.Len()+separatorLen+len(paragraph) > limit {
			flush()
			separatorLen = 0
		}
		if separatorLen > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
	}
	flush()

	return chunks
}

func renderID(id int) string {
	return strconv.Itoa(id)
}
