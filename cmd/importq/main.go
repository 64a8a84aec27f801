// Command importq loads a question bank from a PDF into the questions
// table. Each line of the document is one question:
//
//	title | category | difficulty | plan
//
// difficulty and plan are optional and default to medium/basic.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"

	"intervia-backend/internal/config"
	"intervia-backend/internal/database"
	"intervia-backend/internal/models"
)

func main() {
	file := flag.String("file", "", "path to the question bank PDF")
	dryRun := flag.Bool("dry-run", false, "parse and report without writing to the database")
	flag.Parse()

	if *file == "" {
		log.Fatal("importq: -file is required")
	}

	questions, err := parsePDF(*file)
	if err != nil {
		log.Fatalf("importq: %v", err)
	}
	if len(questions) == 0 {
		log.Fatal("importq: no questions found in document")
	}

	log.Printf("Parsed %d questions from %s", len(questions), *file)
	if *dryRun {
		for _, q := range questions {
			log.Printf("  [%s/%s/%s] %s", q.Category, q.Difficulty, q.PlanRequired, q.Title)
		}
		return
	}

	cfg := config.Load()
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("importq: database connection failed: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()
	inserted := 0
	for _, q := range questions {
		tag, err := pool.Exec(ctx, `
			INSERT INTO questions (title, category, difficulty, plan_required)
			SELECT $1, $2, $3, $4
			WHERE NOT EXISTS (SELECT 1 FROM questions WHERE title = $1)`,
			q.Title, q.Category, q.Difficulty, q.PlanRequired,
		)
		if err != nil {
			log.Fatalf("importq: insert failed for %q: %v", q.Title, err)
		}
		inserted += int(tag.RowsAffected())
	}

	log.Printf("Inserted %d new questions (%d already present)", inserted, len(questions)-inserted)
}

func parsePDF(path string) ([]models.Question, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	totalPage := reader.NumPage()
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}

	return parseLines(b.String())
}

func parseLines(text string) ([]models.Question, error) {
	var questions []models.Question
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < 2 {
			continue
		}

		q := models.Question{
			Title:        strings.TrimSpace(parts[0]),
			Category:     strings.ToLower(strings.TrimSpace(parts[1])),
			Difficulty:   "medium",
			PlanRequired: models.PlanBasic,
		}
		if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
			q.Difficulty = strings.ToLower(strings.TrimSpace(parts[2]))
		}
		if len(parts) > 3 && strings.TrimSpace(parts[3]) != "" {
			q.PlanRequired = strings.ToLower(strings.TrimSpace(parts[3]))
		}

		if q.Title == "" || q.Category == "" {
			return nil, fmt.Errorf("line %d: title and category are required", i+1)
		}
		if !models.ValidPlan(q.PlanRequired) {
			return nil, fmt.Errorf("line %d: unknown plan %q", i+1, q.PlanRequired)
		}
		switch q.Difficulty {
		case "easy", "medium", "hard":
		default:
			return nil, fmt.Errorf("line %d: unknown difficulty %q", i+1, q.Difficulty)
		}

		questions = append(questions, q)
	}
	return questions, nil
}
