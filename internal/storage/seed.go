package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/plan"
)

// SeedDefaultPlans publishes the starter catalog when the backend holds no
// plans yet, one of each structure variant. Existing catalogs are left
// alone; plans are immutable once published.
func SeedDefaultPlans(ctx context.Context, repo PlanRepository, logger internal.Logger) error {
	existing, err := repo.ListPlans(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, p := range DefaultPlans() {
		if err := repo.SavePlan(ctx, &p); err != nil {
			return err
		}
		logger.Infof("seeded plan %q (%s)", p.Name, p.DailyStructure.Type())
	}
	return nil
}

func DefaultPlans() []internal.ReadingPlan {
	now := time.Now()
	ntDays := newTestamentDays(3)
	return []internal.ReadingPlan{
		{
			ID:           "gospel-rotation",
			Name:         "Gospel Rotation",
			Description:  "Three independent lists that cycle forever: gospels, psalms and proverbs.",
			DurationDays: 0,
			DailyStructure: plan.CyclingLists{Lists: []plan.ReadingList{
				{
					ID:    "gospels",
					Label: "The Gospels",
					Books: []plan.BookChapters{
						{Book: "Matthew", Chapters: chapterRange(28)},
						{Book: "Mark", Chapters: chapterRange(16)},
						{Book: "Luke", Chapters: chapterRange(24)},
						{Book: "John", Chapters: chapterRange(21)},
					},
					TotalChapters: 89,
				},
				{
					ID:            "psalms",
					Label:         "Psalms",
					Books:         []plan.BookChapters{{Book: "Psalm", Chapters: chapterRange(150)}},
					TotalChapters: 150,
				},
				{
					ID:            "proverbs",
					Label:         "Proverbs",
					Books:         []plan.BookChapters{{Book: "Proverbs", Chapters: chapterRange(31)}},
					TotalChapters: 31,
				},
			}},
			IsActive:  true,
			CreatedAt: now,
		},
		{
			ID:           "nt-in-order",
			Name:         fmt.Sprintf("New Testament in %d Days", len(ntDays)),
			Description:  "The whole New Testament, three chapters a day, front to back.",
			DurationDays: len(ntDays),
			DailyStructure: plan.Sequential{
				ChaptersPerDay: 3,
				Days:           ntDays,
			},
			IsActive:  true,
			CreatedAt: now,
		},
		{
			ID:           "balanced-30",
			Name:         "Balanced Diet, 30 Days",
			Description:  "A gospel passage, a psalm and a proverb every day for a month.",
			DurationDays: 30,
			DailyStructure: plan.Sectional{
				SectionsPerDay: 3,
				Days:           balancedDays(30),
			},
			IsActive:  true,
			CreatedAt: now,
		},
	}
}

var newTestamentBooks = []plan.BookChapters{
	{Book: "Matthew", Chapters: chapterRange(28)},
	{Book: "Mark", Chapters: chapterRange(16)},
	{Book: "Luke", Chapters: chapterRange(24)},
	{Book: "John", Chapters: chapterRange(21)},
	{Book: "Acts", Chapters: chapterRange(28)},
	{Book: "Romans", Chapters: chapterRange(16)},
	{Book: "1 Corinthians", Chapters: chapterRange(16)},
	{Book: "2 Corinthians", Chapters: chapterRange(13)},
	{Book: "Galatians", Chapters: chapterRange(6)},
	{Book: "Ephesians", Chapters: chapterRange(6)},
	{Book: "Philippians", Chapters: chapterRange(4)},
	{Book: "Colossians", Chapters: chapterRange(4)},
	{Book: "1 Thessalonians", Chapters: chapterRange(5)},
	{Book: "2 Thessalonians", Chapters: chapterRange(3)},
	{Book: "1 Timothy", Chapters: chapterRange(6)},
	{Book: "2 Timothy", Chapters: chapterRange(4)},
	{Book: "Titus", Chapters: chapterRange(3)},
	{Book: "Philemon", Chapters: chapterRange(1)},
	{Book: "Hebrews", Chapters: chapterRange(13)},
	{Book: "James", Chapters: chapterRange(5)},
	{Book: "1 Peter", Chapters: chapterRange(5)},
	{Book: "2 Peter", Chapters: chapterRange(3)},
	{Book: "1 John", Chapters: chapterRange(5)},
	{Book: "2 John", Chapters: chapterRange(1)},
	{Book: "3 John", Chapters: chapterRange(1)},
	{Book: "Jude", Chapters: chapterRange(1)},
	{Book: "Revelation", Chapters: chapterRange(22)},
}

// newTestamentDays splits the New Testament into day blocks of the given
// chapter count, walking book by book.
func newTestamentDays(chaptersPerDay int) []plan.SequentialDay {
	var refs []string
	for _, b := range newTestamentBooks {
		for _, ch := range b.Chapters {
			refs = append(refs, fmt.Sprintf("%s %d", b.Book, ch))
		}
	}
	var days []plan.SequentialDay
	for start := 0; start < len(refs); start += chaptersPerDay {
		end := start + chaptersPerDay
		if end > len(refs) {
			end = len(refs)
		}
		days = append(days, plan.SequentialDay{
			Day:      len(days) + 1,
			Passages: refs[start:end],
		})
	}
	return days
}

func balancedDays(n int) []plan.SectionalDay {
	days := make([]plan.SectionalDay, 0, n)
	for d := 1; d <= n; d++ {
		days = append(days, plan.SectionalDay{
			Day: d,
			Sections: []plan.ReadingSection{
				{ID: fmt.Sprintf("d%d-gospel", d), Label: "Gospel", Passages: []string{fmt.Sprintf("John %d", (d-1)%21+1)}},
				{ID: fmt.Sprintf("d%d-psalm", d), Label: "Psalm", Passages: []string{fmt.Sprintf("Psalm %d", d)}},
				{ID: fmt.Sprintf("d%d-proverb", d), Label: "Proverb", Passages: []string{fmt.Sprintf("Proverbs %d", (d-1)%31+1)}},
			},
		})
	}
	return days
}

func chapterRange(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
