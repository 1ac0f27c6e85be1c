package postgres

import "github.com/obscore/scheduler/repository"

var _ repository.Repository = (*Store)(nil)
