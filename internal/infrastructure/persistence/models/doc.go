// Package models contains GORM persistence models that map to database tables.
// These models are separate from the analytics read models so the domain
// layer stays free of ORM tags.
//
// - base.go: BaseModel shared by every table
// - analytics.go: purchase orders and consumption observations
//
// Tables are created by the SQL files under migrations/ on PostgreSQL and
// by AutoMigrate on SQLite.
package models
