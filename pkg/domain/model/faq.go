package model

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/insurdesk/concierge/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// faqLinePattern matches "12. How do I file a claim? Call the claims desk."
var faqLinePattern = regexp.MustCompile(`^(\d+)\.\s+(.+?)\?\s+(.+)$`)

// FAQItem is one numbered question/answer pair of an FAQ document
type FAQItem struct {
	ID       string
	Question string
	Answer   string
}

// OriginalID is the stable identifier stored in metadata, e.g. "faq-007"
func (f *FAQItem) OriginalID() string {
	return "faq-" + f.ID
}

// TextChunk is the text that gets vectorized for this item
func (f *FAQItem) TextChunk() string {
	return fmt.Sprintf("Question: %s\nAnswer: %s", f.Question, f.Answer)
}

// ToKnowledgeEntry builds an unvectorized entry for the item
func (f *FAQItem) ToKnowledgeEntry(sourceType types.SourceType) *KnowledgeEntry {
	return &KnowledgeEntry{
		SourceType: sourceType,
		TextChunk:  f.TextChunk(),
		Metadata: Metadata{
			"question":    f.Question,
			"answer":      f.Answer,
			"category":    "general",
			"original_id": f.OriginalID(),
		},
	}
}

// ParseFAQ reads numbered FAQ lines. Lines that are blank or do not follow
// the "<n>. <question>? <answer>" shape are skipped. IDs are zero padded to
// three digits.
func ParseFAQ(r io.Reader) ([]*FAQItem, error) {
	var items []*FAQItem

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		match := faqLinePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		id := match[1]
		if len(id) < 3 {
			id = strings.Repeat("0", 3-len(id)) + id
		}
		items = append(items, &FAQItem{
			ID:       id,
			Question: strings.TrimSpace(match[2]),
			Answer:   strings.TrimSpace(match[3]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read FAQ content")
	}

	return items, nil
}

// SeedResult reports what an FAQ seed run did
type SeedResult struct {
	Parsed  int `json:"parsed"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Deleted int `json:"deleted"`
}
