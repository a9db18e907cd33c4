package summarize

import (
	"fmt"
	"strings"

	"github.com/law-makers/profiler/pkg/models"
)

var instructions = map[models.AnalysisMode]string{
	models.ModeBio: `Write a professional LinkedIn "About" bio for the person below.
Write in the first person, 150 to 250 words, warm but professional.
Highlight their current role, core expertise and the value they bring.
Do not invent employers, titles or qualifications that are not listed.`,

	models.ModeSummary: `Tell me about this profile. Write a concise networking summary for a recruiter
or a professional who is about to contact this person.
Cover who they are, what they work on, their most relevant experience and skills,
and two or three good conversation starters. Use short paragraphs or bullet points.`,

	models.ModeAnalysis: `Analyse this LinkedIn profile in depth. Structure the answer with these headings:
Overview, Strengths, Gaps or Weak Spots, Career Trajectory, Recommendations.
Be specific and refer to the listed experience, skills and education.
Where information is missing, say so instead of guessing.`,
}

// BuildPrompt renders the request text for rec in mode
func BuildPrompt(rec *models.ProfileRecord, mode models.AnalysisMode) (string, error) {
	instr, ok := instructions[mode]
	if !ok {
		return "", fmt.Errorf("no prompt for analysis mode %q", mode)
	}

	var b strings.Builder
	b.WriteString(instr)
	b.WriteString("\n\nProfile:\n")
	writeField(&b, "Name", rec.Name)
	writeField(&b, "Headline", rec.Headline)
	writeField(&b, "About", rec.About)

	if len(rec.Experience) > 0 {
		b.WriteString("Experience:\n")
		for _, e := range rec.Experience {
			switch {
			case e.Title != "" && e.Company != "":
				fmt.Fprintf(&b, "- %s at %s\n", e.Title, e.Company)
			case e.Title != "":
				fmt.Fprintf(&b, "- %s\n", e.Title)
			case e.Company != "":
				fmt.Fprintf(&b, "- %s\n", e.Company)
			}
		}
	}
	if len(rec.Skills) > 0 {
		writeField(&b, "Skills", strings.Join(rec.Skills, ", "))
	}
	if len(rec.Education) > 0 {
		b.WriteString("Education:\n")
		for _, ed := range rec.Education {
			fmt.Fprintf(&b, "- %s\n", ed)
		}
	}

	return strings.TrimSpace(b.String()), nil
}

func writeField(b *strings.Builder, label, value string) {
	if value = strings.TrimSpace(value); value != "" {
		fmt.Fprintf(b, "%s: %s\n", label, value)
	}
}

// SampleProfile returns a built-in profile for trying the analysis modes without a browser
func SampleProfile() *models.ProfileRecord {
	return &models.ProfileRecord{
		Name:     "Alex Morgan",
		Headline: "Senior Backend Engineer | Distributed Systems | Go & Kubernetes",
		About: "Backend engineer with eight years of experience designing and operating " +
			"high-throughput services. I care about reliability, clear APIs and mentoring.",
		Experience: []models.Experience{
			{Title: "Senior Backend Engineer", Company: "Northwind Logistics"},
			{Title: "Software Engineer", Company: "Contoso Payments"},
			{Title: "Junior Developer", Company: "Fabrikam Labs"},
		},
		Skills:    []string{"Go", "Kubernetes", "PostgreSQL", "gRPC", "System Design"},
		Education: []string{"BSc Computer Science, University of Leeds"},
		URL:       "https://www.linkedin.com/in/sample-profile",
	}
}
