// Package concurrency computes the optimistic-lock token used by the
// product edit workflow.
//
// The token covers exactly these fields, in this order:
//
//	sku, name, description, categoryId, price, minStock, unit, isActive,
//	preferredLocationId, preferredLocationCode, categoryIds
//
// Text fields are trimmed, inner whitespace runs collapse to one space, and
// the result is NFC-normalized and case folded. Price is rendered with two
// decimals. Category ids are sorted and deduplicated. Nil ids render as
// empty. Any change outside this list does not change the token.
package concurrency

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"ferreteria/internal/domain"
	apperrors "ferreteria/internal/errors"
)

type Token string

const fieldSeparator = "\x1f"

// ProductState is the tracked subset of a product.
type ProductState struct {
	SKU                   string
	Name                  string
	Description           string
	CategoryID            *int
	Price                 decimal.Decimal
	MinStock              int
	Unit                  string
	IsActive              bool
	PreferredLocationID   *int
	PreferredLocationCode string
}

func StateOf(p domain.Product) ProductState {
	return ProductState{
		SKU:                   p.SKU,
		Name:                  p.Name,
		Description:           p.Description,
		CategoryID:            p.CategoryID,
		Price:                 p.Price,
		MinStock:              p.MinStock,
		Unit:                  p.Unit,
		IsActive:              p.IsActive,
		PreferredLocationID:   p.PreferredLocationID,
		PreferredLocationCode: p.PreferredLocationCode,
	}
}

func Fingerprint(s ProductState, categoryIDs []int) Token {
	fields := []string{
		normalizeText(s.SKU),
		normalizeText(s.Name),
		normalizeText(s.Description),
		optionalInt(s.CategoryID),
		s.Price.StringFixed(2),
		strconv.Itoa(s.MinStock),
		normalizeText(s.Unit),
		strconv.FormatBool(s.IsActive),
		optionalInt(s.PreferredLocationID),
		normalizeText(s.PreferredLocationCode),
		joinSorted(categoryIDs),
	}

	sum := sha256.Sum256([]byte(strings.Join(fields, fieldSeparator)))
	return Token(hex.EncodeToString(sum[:]))
}

// Verify compares the token captured when the edit form was loaded with
// the one computed from the current row.
func Verify(expected, current Token) error {
	if expected != current {
		return apperrors.NewConflictError(apperrors.CodeConcurrentModification,
			"the product was modified by someone else, reload and try again")
	}
	return nil
}

func normalizeText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = norm.NFC.String(s)
	return cases.Fold().String(s)
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func joinSorted(ids []int) string {
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)

	parts := make([]string, 0, len(sorted))
	for i, id := range sorted {
		if i > 0 && sorted[i-1] == id {
			continue
		}
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ",")
}
