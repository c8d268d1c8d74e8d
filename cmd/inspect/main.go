// Command inspect lists, prints and clears the documents a composer keeps in
// its configured storage backend.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/debemdeboas/semantic-composer/internal/config"
	"github.com/debemdeboas/semantic-composer/internal/model"
	"github.com/debemdeboas/semantic-composer/internal/storage"
)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	currentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	outputStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file")
	prefix := flag.String("prefix", "", "Storage key prefix (default from config)")
	show := flag.String("show", "", "Print the stored markdown of one document")
	keys := flag.Bool("keys", false, "List raw storage keys instead of documents")
	clearAll := flag.Bool("clear", false, "Remove every record under the prefix")
	yes := flag.Bool("yes", false, "Do not ask for confirmation when clearing")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fail("Error loading config:", err)
	}
	if *prefix == "" {
		*prefix = cfg.Composer.StorageKeyPrefix
	}

	if err := run(cfg.Storage, *prefix, *show, *keys, *clearAll, *yes); err != nil {
		fail("Error:", err)
	}
}

func run(storageCfg config.StorageConfig, prefix, show string, keys, clearAll, yes bool) error {
	ctx := context.Background()
	store, err := storage.Open(ctx, storageCfg)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	adapter := storage.NewAdapter(store, prefix)

	switch {
	case show != "":
		text, ok, err := adapter.Read(ctx, show)
		if err != nil {
			return fmt.Errorf("reading document: %w", err)
		}
		if !ok {
			return fmt.Errorf("document not found: %s", adapter.KeyFor(show))
		}
		fmt.Print(text)
	case keys:
		all, err := adapter.ListKeys(ctx)
		if err != nil {
			return fmt.Errorf("listing keys: %w", err)
		}
		for _, key := range all {
			fmt.Println(key)
		}
	case clearAll:
		if !yes && !confirm(fmt.Sprintf("Remove every record under %q from %s? [y/N] ", adapter.Prefix(), store.Name())) {
			return nil
		}
		removed, err := adapter.ClearAll(ctx)
		if err != nil {
			return fmt.Errorf("clearing storage: %w", err)
		}
		fmt.Println(outputStyle.Render(fmt.Sprintf("Removed %d records", removed)))
	default:
		if err := list(ctx, adapter, store.Name()); err != nil {
			return fmt.Errorf("listing documents: %w", err)
		}
	}
	return nil
}

func list(ctx context.Context, adapter *storage.Adapter, backend string) error {
	ids, err := adapter.Documents(ctx)
	if err != nil {
		return err
	}
	current, _, err := adapter.CurrentDocument(ctx)
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%d documents in %s under %q", len(ids), backend, adapter.Prefix())))
	for _, id := range ids {
		text, ok, err := adapter.Read(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		doc := model.NewDocument(model.DocumentID(id), adapter.KeyFor(id), text, id == current)
		marker := "  "
		title := doc.DisplayTitle()
		if doc.Current {
			marker = "* "
			title = currentStyle.Render(title)
		}
		fmt.Printf("%s%-24s %s %s\n", marker, id, title,
			mutedStyle.Render(fmt.Sprintf("(%d bytes, %s)", doc.Length, doc.Hash[:12])))
	}
	return nil
}

func confirm(prompt string) bool {
	fmt.Print(promptStyle.Render(prompt))
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

func fail(msg string, err error) {
	fmt.Fprintln(os.Stderr, outputStyle.Render(msg), err)
	os.Exit(1)
}
