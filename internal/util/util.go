// Package util provides content hashing and document title extraction.
package util

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gomarkdown/markdown"

	"github.com/mmarkdown/mmark/v2/mast"
)

const frontMatterDelimiter = "%%%"

type ExtendedTitleData struct {
	*mast.TitleData
	Consumed int
}

func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func ContentHashString(content string) string {
	return ContentHash([]byte(content))
}

// GetFrontMatter decodes a leading %%% TOML block. Consumed is the number of
// bytes of the normalized input taken by the block.
func GetFrontMatter(md []byte) (*ExtendedTitleData, error) {
	md = markdown.NormalizeNewlines(md)
	md = bytes.TrimLeft(md, "\n \t\r")

	delimiter := []byte(frontMatterDelimiter)
	if !bytes.HasPrefix(md, delimiter) {
		return nil, fmt.Errorf("invalid front matter format")
	}

	rest := md[len(delimiter):]
	second := bytes.Index(rest, delimiter)
	if second == -1 {
		return nil, fmt.Errorf("invalid front matter format")
	}

	info := &ExtendedTitleData{
		TitleData: &mast.TitleData{},
	}
	if _, err := toml.Decode(string(rest[:second]), info.TitleData); err != nil {
		return nil, fmt.Errorf("failed to decode front matter: %w", err)
	}

	if info.Language == "" {
		info.Language = "en"
	}
	info.Consumed = len(delimiter) + second + len(delimiter)

	return info, nil
}

// DocumentTitle picks a display title for a stored document: the front matter
// title, then the first ATX heading, then fallback.
func DocumentTitle(md []byte, fallback string) string {
	if info, err := GetFrontMatter(md); err == nil && info.Title != "" {
		return info.Title
	}

	scanner := bufio.NewScanner(bytes.NewReader(md))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "#") {
			continue
		}
		title := strings.TrimSpace(strings.TrimLeft(line, "#"))
		if title != "" {
			return title
		}
	}

	return fallback
}
