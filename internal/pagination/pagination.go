// Package pagination splits list views into numbered pages.
package pagination

import (
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

var ErrInvalidPage = errors.New("invalid page")

// Page - одна страница списка. Пустой список всё равно имеет первую страницу.
type Page struct {
	Number   int
	PerPage  int
	Total    int64
	NumPages int
}

// New разбирает номер страницы из query-параметра. Пустое значение - первая страница,
// "last" - последняя. Нечисловое значение или номер вне диапазона дают ErrInvalidPage.
func New(raw string, perPage int, total int64) (Page, error) {
	if perPage <= 0 {
		perPage = 10
	}
	p := Page{PerPage: perPage, Total: total}

	p.NumPages = int((total + int64(perPage) - 1) / int64(perPage))
	if p.NumPages == 0 {
		p.NumPages = 1
	}

	raw = strings.TrimSpace(raw)
	switch raw {
	case "":
		p.Number = 1
	case "last":
		p.Number = p.NumPages
	default:
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > p.NumPages {
			return Page{}, ErrInvalidPage
		}
		p.Number = n
	}
	return p, nil
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

func (p Page) HasPrevious() bool { return p.Number > 1 }
func (p Page) HasNext() bool     { return p.Number < p.NumPages }
func (p Page) HasOther() bool    { return p.HasPrevious() || p.HasNext() }

func (p Page) PreviousNumber() int { return p.Number - 1 }
func (p Page) NextNumber() int     { return p.Number + 1 }

// StartIndex - 1-based номер первого элемента на странице (0 для пустого списка).
func (p Page) StartIndex() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

func (p Page) EndIndex() int {
	end := p.Offset() + p.PerPage
	if int64(end) > p.Total {
		end = int(p.Total)
	}
	return end
}

// Scope ограничивает запрос строками текущей страницы.
func (p Page) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.PerPage)
	}
}
