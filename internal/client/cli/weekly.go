package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dcitarelli/workflow/internal/common"
	"github.com/dcitarelli/workflow/internal/vault"
)

// Weekly shows or edits a week: weekly <week-start> [week-end]. Showing
// prints each day; an interactive edit then fills one day on request.
func (a *App) Weekly(ctx context.Context, args []string) error {
	password, err := a.requirePassword()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		printlnFn("Usage: weekly <week-start> [week-end]")
		return nil
	}
	weekStart := args[0]
	weekEnd := ""
	if len(args) > 1 {
		weekEnd = args[1]
	}

	week, err := a.service.WeeklyGet(password, weekStart, weekEnd)
	if err != nil {
		return err
	}
	for _, day := range vault.WeeklySummaryDays {
		entry := week.Entries[day]
		if entry == nil {
			entry = &vault.DayEntry{}
		}
		printlnFn(fmt.Sprintf("%-10s %s - %s  %s", day, entry.Start, entry.End, entry.Content))
	}

	day, err := getSimpleText(a.reader, "Edit day (empty to skip)", os.Stdout)
	if err != nil {
		return err
	}
	if day == "" {
		return nil
	}
	start, err := getSimpleText(a.reader, "Start time", os.Stdout)
	if err != nil {
		return err
	}
	end, err := getSimpleText(a.reader, "End time", os.Stdout)
	if err != nil {
		return err
	}
	content, err := GetMultiline(a.reader, "Activities", os.Stdout)
	if err != nil {
		return err
	}

	entries := map[string]*vault.DayEntry{}
	for name, entry := range week.Entries {
		entries[name] = entry
	}
	entries[day] = &vault.DayEntry{Start: start, End: end, Content: content}
	if err := a.service.WeeklySet(password, week.WeekStart, week.WeekEnd, entries); err != nil {
		return err
	}
	printlnFn(successText("Week saved."))
	return nil
}

// Summary renders the markdown report for a week and keeps it in the
// secure cache so a repeat within the TTL skips the rebuild:
// summary <week-start> [save].
func (a *App) Summary(ctx context.Context, args []string) error {
	password, err := a.requirePassword()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		printlnFn("Usage: summary <week-start> [save]")
		return nil
	}
	weekStart := args[0]

	cacheKey := "weekly-summary:" + weekStart
	content, err := a.cache.Get(ctx, cacheKey, password)
	if err != nil && !errors.Is(err, common.ErrCacheMiss) {
		return err
	}
	filename := vault.WeeklySummaryFilename(weekStart)
	if errors.Is(err, common.ErrCacheMiss) {
		result, err := a.service.WeeklySummary(password, weekStart, "")
		if err != nil {
			return err
		}
		content = result.Content
		filename = result.Filename
		if err := a.cache.Put(ctx, cacheKey, content, password, a.config.CacheTTL); err != nil {
			a.log.Warn(ctx, "caching weekly summary failed", "error", err)
		}
	}

	if len(args) > 1 && args[1] == "save" {
		if err := a.service.Store().WriteText(filename, content); err != nil {
			return err
		}
		printlnFn(successText("Saved " + filename))
		return nil
	}
	printlnFn(content)
	return nil
}
