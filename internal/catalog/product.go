package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("all product fields are required")
	ErrDuplicateCode = errors.New("product code already in use")
	ErrNotFound      = errors.New("product not found")
	ErrPersistence   = errors.New("product file persistence failed")
)

type Product struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       Number `json:"price"`
	Thumbnail   string `json:"thumbnail"`
	Code        string `json:"code"`
	Stock       Number `json:"stock"`
}

// NewProduct holds the caller-supplied fields of a product. Ids are always
// assigned by the store.
type NewProduct struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       Number `json:"price"`
	Thumbnail   string `json:"thumbnail"`
	Code        string `json:"code"`
	Stock       Number `json:"stock"`
}

// ProductPatch is a partial update. Nil fields keep their current value.
type ProductPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Price       *Number `json:"price,omitempty"`
	Thumbnail   *string `json:"thumbnail,omitempty"`
	Code        *string `json:"code,omitempty"`
	Stock       *Number `json:"stock,omitempty"`
}

type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: missing %s", ErrValidation.Error(), strings.Join(e.Missing, ", "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// PersistError reports a failed load or save of the backing file.
type PersistError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

func (e *PersistError) Is(target error) bool { return target == ErrPersistence }

// Validate applies the presence check: empty text, a zero price and a zero
// stock all count as missing.
func (np NewProduct) Validate() error {
	return checkPresence(np.Title, np.Description, np.Price, np.Thumbnail, np.Code, np.Stock)
}

func (np NewProduct) product(id int64) Product {
	return Product{
		ID:          id,
		Title:       np.Title,
		Description: np.Description,
		Price:       np.Price,
		Thumbnail:   np.Thumbnail,
		Code:        np.Code,
		Stock:       np.Stock,
	}
}

// Validate rejects patches that would blank a required field.
func (pp ProductPatch) Validate() error {
	var missing []string
	if pp.Title != nil && *pp.Title == "" {
		missing = append(missing, "title")
	}
	if pp.Description != nil && *pp.Description == "" {
		missing = append(missing, "description")
	}
	if pp.Price != nil && pp.Price.IsZero() {
		missing = append(missing, "price")
	}
	if pp.Thumbnail != nil && *pp.Thumbnail == "" {
		missing = append(missing, "thumbnail")
	}
	if pp.Code != nil && *pp.Code == "" {
		missing = append(missing, "code")
	}
	if pp.Stock != nil && pp.Stock.IsZero() {
		missing = append(missing, "stock")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// merge validates the patch and applies it to current.
func (pp ProductPatch) merge(current Product) (Product, error) {
	if err := pp.Validate(); err != nil {
		return Product{}, err
	}
	return pp.Apply(current), nil
}

// Apply returns p with the patch fields replaced. The id never changes.
func (pp ProductPatch) Apply(p Product) Product {
	if pp.Title != nil {
		p.Title = *pp.Title
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Price != nil {
		p.Price = *pp.Price
	}
	if pp.Thumbnail != nil {
		p.Thumbnail = *pp.Thumbnail
	}
	if pp.Code != nil {
		p.Code = *pp.Code
	}
	if pp.Stock != nil {
		p.Stock = *pp.Stock
	}
	return p
}

func checkPresence(title, description string, price Number, thumbnail, code string, stock Number) error {
	var missing []string
	if title == "" {
		missing = append(missing, "title")
	}
	if description == "" {
		missing = append(missing, "description")
	}
	if price.IsZero() {
		missing = append(missing, "price")
	}
	if thumbnail == "" {
		missing = append(missing, "thumbnail")
	}
	if code == "" {
		missing = append(missing, "code")
	}
	if stock.IsZero() {
		missing = append(missing, "stock")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
