package database

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern строит шаблон для регистронезависимого "contains":
// спецсимволы LIKE в запросе пользователя экранируются.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
}

// ilike - LOWER(col) LIKE pattern, одинаково работает в postgres и sqlite.
func ilike(col clause.Column, q string) clause.Expr {
	return gorm.Expr(`LOWER(?) LIKE ? ESCAPE '\'`, col, containsPattern(q))
}

// SearchClients фильтрует клиентов по подстроке в имени или email.
// Пустой запрос ничего не фильтрует.
func SearchClients(q string) func(*gorm.DB) *gorm.DB {
	q = strings.TrimSpace(q)
	return func(db *gorm.DB) *gorm.DB {
		if q == "" {
			return db
		}
		return db.Where(
			db.Session(&gorm.Session{NewDB: true}).
				Where(ilike(clause.Column{Table: "clients", Name: "name"}, q)).
				Or(ilike(clause.Column{Table: "clients", Name: "email"}, q)),
		)
	}
}

// SearchReports фильтрует отчёты по подстроке в названии или в имени клиента.
// Запрос должен быть построен с Joins("Client").
func SearchReports(q string) func(*gorm.DB) *gorm.DB {
	q = strings.TrimSpace(q)
	return func(db *gorm.DB) *gorm.DB {
		if q == "" {
			return db
		}
		return db.Where(
			db.Session(&gorm.Session{NewDB: true}).
				Where(ilike(clause.Column{Table: "reports", Name: "title"}, q)).
				Or(ilike(clause.Column{Table: "Client", Name: "name"}, q)),
		)
	}
}
