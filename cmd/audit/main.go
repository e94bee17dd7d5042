package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/recipeshare/api/internal/config"
	"github.com/recipeshare/api/internal/database"
	"github.com/recipeshare/api/internal/model"
	"gorm.io/gorm"
)

type Issue struct {
	RecipeID string `json:"recipeId"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Details  string `json:"details"`
}

const (
	IssueInconsistentStatus = "INCONSISTENT_STATUS"
	IssueEmptyIngredients   = "EMPTY_INGREDIENTS"
	IssueEmptyInstructions  = "EMPTY_INSTRUCTIONS"
	IssueStepNumbering      = "STEP_NUMBERING"
	IssueTagMismatch        = "TAG_MISMATCH"
	IssueArchivedButLive    = "ARCHIVED_BUT_LIVE"
	IssueOrphanComment      = "ORPHAN_COMMENT"
)

type job struct {
	recipe model.Recipe
	tags   []string
}

func main() {
	workers := flag.Int("workers", 10, "Number of parallel workers")
	outputFile := flag.String("output", "audit_results.json", "Output file for results")
	fix := flag.Bool("fix", false, "Set is_published from moderation_status on inconsistent recipes")
	flag.Parse()

	cfg := config.Load()
	db, err := database.Open(cfg.DatabaseURL, false)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var total int64
	if err := db.Model(&model.Recipe{}).Count(&total).Error; err != nil {
		log.Fatalf("Failed to count recipes: %v", err)
	}

	fmt.Printf("Auditing %d recipes with %d workers...\n", total, *workers)

	jobs := make(chan job, *workers*10)
	issueChan := make(chan Issue, 1000)

	var processed int64
	var issueCount int64
	var wg sync.WaitGroup

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				for _, issue := range auditRecipe(j.recipe, j.tags) {
					issueChan <- issue
					atomic.AddInt64(&issueCount, 1)
				}
				p := atomic.AddInt64(&processed, 1)
				if p%1000 == 0 {
					fmt.Printf("Progress: %d/%d (%.1f%%), Issues found: %d\n",
						p, total, percent(p, total), atomic.LoadInt64(&issueCount))
				}
			}
		}()
	}

	var issues []Issue
	done := make(chan struct{})
	go func() {
		for issue := range issueChan {
			issues = append(issues, issue)
		}
		close(done)
	}()

	startTime := time.Now()
	const batchSize = 500
	for offset := 0; ; offset += batchSize {
		var recipes []model.Recipe
		if err := db.Order("id ASC").Offset(offset).Limit(batchSize).Find(&recipes).Error; err != nil {
			log.Printf("Database error: %v", err)
			break
		}
		if len(recipes) == 0 {
			break
		}

		tags, err := loadTags(db, recipes)
		if err != nil {
			log.Printf("Database error: %v", err)
			break
		}
		for _, r := range recipes {
			jobs <- job{recipe: r, tags: tags[r.ID]}
		}
	}

	close(jobs)
	wg.Wait()

	for _, issue := range globalIssues(db) {
		issueChan <- issue
	}
	close(issueChan)
	<-done

	sort.Slice(issues, func(i, j int) bool {
		if issues[i].RecipeID != issues[j].RecipeID {
			return issues[i].RecipeID < issues[j].RecipeID
		}
		return issues[i].Type < issues[j].Type
	})

	elapsed := time.Since(startTime)
	fmt.Printf("\n=== Audit Complete ===\n")
	fmt.Printf("Total recipes: %d\n", total)
	fmt.Printf("Issues found: %d\n", len(issues))
	fmt.Printf("Time elapsed: %v\n", elapsed)

	issuesByType := groupByType(issues)
	fmt.Printf("\n=== Issues by Type ===\n")
	for typ, typeIssues := range issuesByType {
		fmt.Printf("%s: %d\n", typ, len(typeIssues))
	}

	var fixed int64
	if *fix {
		fixed, err = fixPublished(db)
		if err != nil {
			log.Printf("Failed to fix inconsistent recipes: %v", err)
		} else {
			fmt.Printf("\nRealigned is_published on %d recipes\n", fixed)
		}
	}

	output := map[string]interface{}{
		"summary": map[string]interface{}{
			"total":   total,
			"issues":  len(issues),
			"fixed":   fixed,
			"elapsed": elapsed.String(),
		},
		"issuesByType": issuesByType,
		"issues":       issues,
	}

	jsonData, _ := json.MarshalIndent(output, "", "  ")
	if err := os.WriteFile(*outputFile, jsonData, 0644); err != nil {
		log.Printf("Failed to write output file: %v", err)
	} else {
		fmt.Printf("\nResults saved to %s\n", *outputFile)
	}
}

func percent(n, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func loadTags(db *gorm.DB, recipes []model.Recipe) (map[string][]string, error) {
	ids := make([]string, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
	}
	var rows []model.RecipeTag
	if err := db.Where("recipe_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	tags := make(map[string][]string)
	for _, row := range rows {
		tags[row.RecipeID] = append(tags[row.RecipeID], row.Tag)
	}
	return tags, nil
}

// auditRecipe checks one recipe against the storage invariants.
// tagRows are the recipe_tags rows stored for it.
func auditRecipe(r model.Recipe, tagRows []string) []Issue {
	var issues []Issue
	add := func(typ, format string, args ...interface{}) {
		issues = append(issues, Issue{
			RecipeID: r.ID,
			Title:    r.Title,
			Type:     typ,
			Details:  fmt.Sprintf(format, args...),
		})
	}

	// Check 1: is_published must match the approval
	if !r.Consistent() {
		add(IssueInconsistentStatus, "status %s with is_published=%t", r.ModerationStatus, r.IsPublished)
	}

	// Check 2: approved recipes always carry content
	if r.ModerationStatus == model.ModerationApproved {
		if len(r.Ingredients) == 0 {
			add(IssueEmptyIngredients, "approved recipe has no ingredients")
		}
		if len(r.Instructions) == 0 {
			add(IssueEmptyInstructions, "approved recipe has no instructions")
		}
	}

	// Check 3: steps are numbered 1..n
	for i, step := range r.Instructions {
		if step.Step != i+1 {
			add(IssueStepNumbering, "instruction %d has step %d", i+1, step.Step)
			break
		}
	}

	// Check 4: tag rows mirror the tags column
	if missing, extra := diffTags(r.Tags, tagRows); len(missing) > 0 || len(extra) > 0 {
		add(IssueTagMismatch, "missing rows %v, extra rows %v", missing, extra)
	}

	return issues
}

func diffTags(column, rows []string) (missing, extra []string) {
	inRows := make(map[string]bool, len(rows))
	for _, t := range rows {
		inRows[t] = true
	}
	inColumn := make(map[string]bool, len(column))
	for _, t := range column {
		inColumn[t] = true
		if !inRows[t] {
			missing = append(missing, t)
		}
	}
	for _, t := range rows {
		if !inColumn[t] {
			extra = append(extra, t)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return missing, extra
}

// globalIssues finds cross-table problems that no single recipe row shows.
func globalIssues(db *gorm.DB) []Issue {
	var issues []Issue

	var live []model.RejectedRecipe
	if err := db.Where("recipe_id IN (?)", db.Model(&model.Recipe{}).Select("id")).
		Find(&live).Error; err != nil {
		log.Printf("Database error: %v", err)
	}
	for _, a := range live {
		issues = append(issues, Issue{
			RecipeID: a.RecipeID,
			Title:    a.Title,
			Type:     IssueArchivedButLive,
			Details:  fmt.Sprintf("archived at %s but still in recipes", a.RejectedAt.Format(time.RFC3339)),
		})
	}

	var orphans []model.Comment
	if err := db.Where("recipe_id NOT IN (?)", db.Model(&model.Recipe{}).Select("id")).
		Find(&orphans).Error; err != nil {
		log.Printf("Database error: %v", err)
	}
	for _, c := range orphans {
		issues = append(issues, Issue{
			RecipeID: c.RecipeID,
			Type:     IssueOrphanComment,
			Details:  fmt.Sprintf("comment %d references a missing recipe", c.ID),
		})
	}

	return issues
}

func groupByType(issues []Issue) map[string][]Issue {
	byType := make(map[string][]Issue)
	for _, issue := range issues {
		byType[issue.Type] = append(byType[issue.Type], issue)
	}
	return byType
}

// fixPublished realigns is_published with moderation_status.
func fixPublished(db *gorm.DB) (int64, error) {
	result := db.Model(&model.Recipe{}).
		Where("is_published <> (moderation_status = ?)", model.ModerationApproved).
		Update("is_published", gorm.Expr("moderation_status = ?", model.ModerationApproved))
	return result.RowsAffected, result.Error
}
