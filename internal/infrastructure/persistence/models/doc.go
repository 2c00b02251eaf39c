// Package models holds the GORM persistence models of the helpdesk tables. Domain
// aggregates stay free of ORM tags; each model converts to and from its aggregate
// with ToDomain / XxxModelFromDomain.
package models
