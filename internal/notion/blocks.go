package notion

import (
	"context"
	"fmt"
	"strings"

	"github.com/jomei/notionapi"

	"github.com/mj1618/desktop-extract/internal/model"
)

// BlockText returns the block's plain text, or "" for blocks without any.
func BlockText(b notionapi.Block) string {
	switch b := b.(type) {
	case *notionapi.ParagraphBlock:
		return plain(b.Paragraph.RichText)
	case *notionapi.Heading1Block:
		return plain(b.Heading1.RichText)
	case *notionapi.Heading2Block:
		return plain(b.Heading2.RichText)
	case *notionapi.Heading3Block:
		return plain(b.Heading3.RichText)
	case *notionapi.BulletedListItemBlock:
		return plain(b.BulletedListItem.RichText)
	case *notionapi.NumberedListItemBlock:
		return plain(b.NumberedListItem.RichText)
	case *notionapi.ToDoBlock:
		return plain(b.ToDo.RichText)
	case *notionapi.ToggleBlock:
		return plain(b.Toggle.RichText)
	case *notionapi.QuoteBlock:
		return plain(b.Quote.RichText)
	case *notionapi.CalloutBlock:
		return plain(b.Callout.RichText)
	case *notionapi.CodeBlock:
		return plain(b.Code.RichText)
	case *notionapi.EquationBlock:
		return b.Equation.Expression
	case *notionapi.ChildPageBlock:
		return b.ChildPage.Title
	case *notionapi.ChildDatabaseBlock:
		return b.ChildDatabase.Title
	case *notionapi.ImageBlock:
		return plain(b.Image.Caption)
	default:
		return ""
	}
}

var blockTypes = map[string]string{
	"paragraph":          "text",
	"heading_1":          "heading",
	"heading_2":          "heading",
	"heading_3":          "heading",
	"bulleted_list_item": "list",
	"numbered_list_item": "list",
	"to_do":              "list",
	"toggle":             "text",
	"quote":              "text",
	"callout":            "text",
	"code":               "code",
	"equation":           "equation",
	"child_page":         "link",
	"child_database":     "link",
	"image":              "image",
}

// BlockType maps an API block type to a result block type.
func BlockType(apiType string) string {
	if t, ok := blockTypes[apiType]; ok {
		return t
	}
	return "text"
}

func (c *Client) children(ctx context.Context, blockID string) ([]notionapi.Block, error) {
	var out []notionapi.Block
	var cursor notionapi.Cursor
	for {
		resp, err := c.api.Block.GetChildren(ctx, notionapi.BlockID(NormalizeID(blockID)),
			&notionapi.Pagination{StartCursor: cursor, PageSize: maxPageSize})
		if err != nil {
			return nil, err
		}
		out = append(out, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			return out, nil
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}
}

// PageBlocks returns every block of the page depth-first, each parent before
// its children. Child pages and databases are listed but not entered.
func (c *Client) PageBlocks(ctx context.Context, pageID string) ([]notionapi.Block, error) {
	top, err := c.children(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("listing blocks of %s: %w", pageID, err)
	}
	var out []notionapi.Block
	for _, b := range top {
		out = append(out, b)
		kind := string(b.GetType())
		if !b.GetHasChildren() || kind == "child_page" || kind == "child_database" {
			continue
		}
		kids, err := c.PageBlocks(ctx, b.GetID().String())
		if err != nil {
			return nil, err
		}
		out = append(out, kids...)
	}
	return out, nil
}

// Extract reads a page into a result with structured blocks. Blocks without
// text are skipped.
func (c *Client) Extract(ctx context.Context, pageID string) (*model.ExtractionResult, error) {
	title, err := c.PageTitle(ctx, pageID)
	if err != nil {
		return nil, err
	}
	raw, err := c.PageBlocks(ctx, pageID)
	if err != nil {
		return nil, err
	}
	var blocks []model.Block
	for _, b := range raw {
		text := strings.TrimSpace(BlockText(b))
		if text == "" {
			continue
		}
		kind := string(b.GetType())
		blocks = append(blocks, model.Block{
			Type:       BlockType(kind),
			Content:    text,
			Source:     model.SourceStructured,
			Order:      len(blocks),
			Provenance: model.Provenance{Role: kind, Origin: b.GetID().String()},
		})
	}
	return model.NewExtractionResult(pageID, title, blocks, 0, model.StrategyStructured), nil
}
