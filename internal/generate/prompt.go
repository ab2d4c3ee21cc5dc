package generate

import (
	"fmt"
	"strings"
)

// Builder assembles the prompts for one worksheet request.
type Builder struct {
	AnswerAttr string // attribute the model must put answers on
}

func (b Builder) attr() string {
	if b.AnswerAttr == "" {
		return "data-answer"
	}
	return b.AnswerAttr
}

// System returns the system prompt.
func (b Builder) System() string {
	return fmt.Sprintf(`You write printable maths worksheets for primary and lower secondary pupils.

Rules:
- Return one JSON object with "title", "summary" and "html".
- "html" is a fragment for inside <body>: no <html>, <head>, <script> or <style> elements, no external resources.
- Number every question with an ordered list (<ol><li>).
- Every answer box is an <input type="text"> placed where the pupil writes the answer.
- Put the expected answer on the input itself as %[1]s="...". Never print answers elsewhere on the page.
- Keep answers short and unambiguous: a number, a word, or a short list.
- Use plain decimals such as 0.5 or 12. Write fractions as 3/4 and only when the question asks for a fraction.
- When several answers are acceptable, separate them with | (for example %[1]s="7|seven").
- For a list answer, give the parts in the order the question asks, separated by commas.
- Worked examples, if any, go inside <fieldset disabled> so they are not marked.
- Use British spelling for the UK curriculum and American spelling for the US curriculum.`, b.attr())
}

// User returns the user message for cfg.
func (b Builder) User(cfg Config) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Curriculum: %s\n", curriculumName(cfg.Curriculum))
	fmt.Fprintf(&sb, "Year group: %s\n", cfg.YearLabel())
	fmt.Fprintf(&sb, "Topic: %s\n", cfg.Topic)
	fmt.Fprintf(&sb, "Difficulty: %s\n", cfg.Difficulty)
	fmt.Fprintf(&sb, "Number of questions: %d\n", cfg.Questions)
	if cfg.Interactive {
		fmt.Fprintf(&sb, "Format: interactive; every question must have exactly one input with a %s attribute.\n", b.attr())
	} else {
		sb.WriteString("Format: printable; still include answer inputs so an answer key can be produced.\n")
	}
	return sb.String()
}

// Repair returns the corrective follow-up sent after unusable markup.
func (b Builder) Repair(problem string) string {
	return fmt.Sprintf("The worksheet HTML could not be used: %s. Return the complete worksheet again as valid, well-formed HTML where every question has an input carrying %s.", problem, b.attr())
}

func curriculumName(c Curriculum) string {
	if c == CurriculumUS {
		return "United States (Common Core)"
	}
	return "England (National Curriculum)"
}
