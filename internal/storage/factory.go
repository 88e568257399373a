package storage

import "github.com/ShirePath-Solutions/BiblicalBattlePlans/internal"

// Repositories bundles every storage interface a backend implements.
type Repositories struct {
	Plans     PlanRepository
	UserPlans UserPlanRepository
	Progress  ProgressRepository
	Profiles  ProfileRepository
	Mutations MutationStore
}

func NewFileRepositories(plansFile, userPlansFile, progressFile, profilesFile string, logger internal.Logger) (*Repositories, *FileStorage, error) {
	s, err := NewFileStorage(plansFile, userPlansFile, progressFile, profilesFile, logger)
	if err != nil {
		return nil, nil, err
	}
	return &Repositories{Plans: s, UserPlans: s, Progress: s, Profiles: s, Mutations: s}, s, nil
}

func NewPostgresRepositories(dsn string, logger internal.Logger) (*Repositories, error) {
	s, err := NewPostgresStorage(dsn, logger)
	if err != nil {
		return nil, err
	}
	return &Repositories{Plans: s, UserPlans: s, Progress: s, Profiles: s, Mutations: s}, nil
}
