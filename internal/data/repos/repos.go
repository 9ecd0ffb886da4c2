package repos

import (
	"gorm.io/gorm"

	"github.com/caseforge/caseforge-backend/internal/data/repos/auth"
	"github.com/caseforge/caseforge-backend/internal/data/repos/cases"
	"github.com/caseforge/caseforge-backend/internal/data/repos/catalog"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
)

type UserRepo = auth.UserRepo

type ProjectRepo = catalog.ProjectRepo
type ReleaseRepo = catalog.ReleaseRepo
type ReleaseTestCaseRepo = catalog.ReleaseTestCaseRepo

type TestCaseRepo = cases.TestCaseRepo
type FixtureRepo = cases.FixtureRepo
type StepRepo = cases.StepRepo
type TestCaseVersionRepo = cases.TestCaseVersionRepo
type FixtureVersionRepo = cases.FixtureVersionRepo
type StepVersionRepo = cases.StepVersionRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return auth.NewUserRepo(db, baseLog) }

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return catalog.NewProjectRepo(db, baseLog)
}
func NewReleaseRepo(db *gorm.DB, baseLog *logger.Logger) ReleaseRepo {
	return catalog.NewReleaseRepo(db, baseLog)
}
func NewReleaseTestCaseRepo(db *gorm.DB, baseLog *logger.Logger) ReleaseTestCaseRepo {
	return catalog.NewReleaseTestCaseRepo(db, baseLog)
}

func NewTestCaseRepo(db *gorm.DB, baseLog *logger.Logger) TestCaseRepo {
	return cases.NewTestCaseRepo(db, baseLog)
}
func NewFixtureRepo(db *gorm.DB, baseLog *logger.Logger) FixtureRepo {
	return cases.NewFixtureRepo(db, baseLog)
}
func NewStepRepo(db *gorm.DB, baseLog *logger.Logger) StepRepo {
	return cases.NewStepRepo(db, baseLog)
}
func NewTestCaseVersionRepo(db *gorm.DB, baseLog *logger.Logger) TestCaseVersionRepo {
	return cases.NewTestCaseVersionRepo(db, baseLog)
}
func NewFixtureVersionRepo(db *gorm.DB, baseLog *logger.Logger) FixtureVersionRepo {
	return cases.NewFixtureVersionRepo(db, baseLog)
}
func NewStepVersionRepo(db *gorm.DB, baseLog *logger.Logger) StepVersionRepo {
	return cases.NewStepVersionRepo(db, baseLog)
}
