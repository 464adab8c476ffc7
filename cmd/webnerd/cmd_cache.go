package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// cacheCmd groups cache maintenance commands
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the analysis cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry counts by freshness",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached analyses",
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	stats, err := a.cache.GetStats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("entries: %d\n", stats.Entries)
	fmt.Printf("fresh:   %d\n", stats.Fresh)
	fmt.Printf("stale:   %d\n", stats.Stale)
	fmt.Printf("errors:  %d\n", stats.Errors)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.cache.Clear(ctx); err != nil {
		return err
	}
	fmt.Println("cache cleared")
	return nil
}
