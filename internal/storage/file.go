package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/plan"
	"github.com/google/uuid"
)

// FileStorage is the development backend: everything in memory, flushed to
// JSON files by debounced save workers. Mutations hold the single lock, so
// the single-writer-per-user-plan discipline the engine requires is
// satisfied trivially.
type FileStorage struct {
	plans         map[string]*internal.ReadingPlan
	userPlans     map[string]*internal.UserPlan
	userPlanIndex map[string][]*internal.UserPlan      // userID -> enrollments, oldest first
	progress      map[string]*internal.DailyProgress   // userPlanID|date -> record
	progressIndex map[string][]*internal.DailyProgress // userID -> records
	profiles      map[string]*internal.Profile
	mu            sync.RWMutex

	plansFile     string
	userPlansFile string
	progressFile  string
	profilesFile  string

	savePlansChan     chan struct{}
	saveUserPlansChan chan struct{}
	saveProgressChan  chan struct{}
	saveProfilesChan  chan struct{}
	shutdownChan      chan struct{}
	saveDelay         time.Duration
	logger            internal.Logger
}

func NewFileStorage(plansFile, userPlansFile, progressFile, profilesFile string, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		plans:             make(map[string]*internal.ReadingPlan),
		userPlans:         make(map[string]*internal.UserPlan),
		userPlanIndex:     make(map[string][]*internal.UserPlan),
		progress:          make(map[string]*internal.DailyProgress),
		progressIndex:     make(map[string][]*internal.DailyProgress),
		profiles:          make(map[string]*internal.Profile),
		plansFile:         plansFile,
		userPlansFile:     userPlansFile,
		progressFile:      progressFile,
		profilesFile:      profilesFile,
		savePlansChan:     make(chan struct{}, 1),
		saveUserPlansChan: make(chan struct{}, 1),
		saveProgressChan:  make(chan struct{}, 1),
		saveProfilesChan:  make(chan struct{}, 1),
		shutdownChan:      make(chan struct{}),
		saveDelay:         500 * time.Millisecond,
		logger:            logger,
	}

	if err := s.load(); err != nil {
		logger.Errorf("storage: failed to load data files: %v", err)
		return nil, err
	}

	go s.saveWorker(s.savePlansChan, s.savePlans)
	go s.saveWorker(s.saveUserPlansChan, s.saveUserPlans)
	go s.saveWorker(s.saveProgressChan, s.saveProgress)
	go s.saveWorker(s.saveProfilesChan, s.saveProfiles)

	return s, nil
}

func (s *FileStorage) load() error {
	var plans []*internal.ReadingPlan
	if err := readFileJSON(s.plansFile, &plans); err != nil {
		return fmt.Errorf("load plans: %w", err)
	}
	var userPlans []*internal.UserPlan
	if err := readFileJSON(s.userPlansFile, &userPlans); err != nil {
		return fmt.Errorf("load user plans: %w", err)
	}
	var records []*internal.DailyProgress
	if err := readFileJSON(s.progressFile, &records); err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	var profiles []*internal.Profile
	if err := readFileJSON(s.profilesFile, &profiles); err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range plans {
		s.plans[p.ID] = p
	}
	for _, up := range userPlans {
		s.userPlans[up.ID] = up
		s.userPlanIndex[up.UserID] = append(s.userPlanIndex[up.UserID], up)
	}
	for userID := range s.userPlanIndex {
		idx := s.userPlanIndex[userID]
		sort.Slice(idx, func(i, j int) bool { return idx[i].CreatedAt.Before(idx[j].CreatedAt) })
	}
	for _, r := range records {
		s.progress[progressKey(r.UserPlanID, r.Date)] = r
		s.progressIndex[r.UserID] = append(s.progressIndex[r.UserID], r)
	}
	for _, p := range profiles {
		s.profiles[p.UserID] = p
	}
	return nil
}

func readFileJSON(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}
	return os.Rename(tempFile, filePath)
}

func (s *FileStorage) saveWorker(requests chan struct{}, save func() error) {
	timer := time.NewTimer(s.saveDelay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-requests:
			timer.Reset(s.saveDelay)
		case <-timer.C:
			if err := save(); err != nil {
				s.logger.Errorf("storage: save failed: %v", err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func requestSave(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (s *FileStorage) savePlans() error {
	s.mu.RLock()
	plans := make([]*internal.ReadingPlan, 0, len(s.plans))
	for _, p := range s.plans {
		plans = append(plans, p)
	}
	s.mu.RUnlock()
	sort.Slice(plans, func(i, j int) bool { return plans[i].ID < plans[j].ID })
	return atomicWriteFileJSON(s.plansFile, plans)
}

func (s *FileStorage) saveUserPlans() error {
	s.mu.RLock()
	ups := make([]*internal.UserPlan, 0, len(s.userPlans))
	for _, up := range s.userPlans {
		ups = append(ups, up)
	}
	s.mu.RUnlock()
	sort.Slice(ups, func(i, j int) bool { return ups[i].ID < ups[j].ID })
	return atomicWriteFileJSON(s.userPlansFile, ups)
}

func (s *FileStorage) saveProgress() error {
	s.mu.RLock()
	records := make([]*internal.DailyProgress, 0, len(s.progress))
	for _, r := range s.progress {
		records = append(records, r)
	}
	s.mu.RUnlock()
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return atomicWriteFileJSON(s.progressFile, records)
}

func (s *FileStorage) saveProfiles() error {
	s.mu.RLock()
	profiles := make([]*internal.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		profiles = append(profiles, p)
	}
	s.mu.RUnlock()
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].UserID < profiles[j].UserID })
	return atomicWriteFileJSON(s.profilesFile, profiles)
}

func (s *FileStorage) Close() error {
	close(s.shutdownChan)

	if err := s.savePlans(); err != nil {
		return err
	}
	if err := s.saveUserPlans(); err != nil {
		return err
	}
	if err := s.saveProgress(); err != nil {
		return err
	}
	return s.saveProfiles()
}

func progressKey(userPlanID, date string) string {
	return userPlanID + "|" + date
}

// --- PlanRepository ---

func (s *FileStorage) GetPlan(ctx context.Context, planID string) (*internal.ReadingPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[planID]
	if !ok {
		return nil, plan.ErrPlanNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *FileStorage) ListPlans(ctx context.Context) ([]internal.ReadingPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plans := make([]internal.ReadingPlan, 0, len(s.plans))
	for _, p := range s.plans {
		plans = append(plans, *p)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Name < plans[j].Name })
	return plans, nil
}

func (s *FileStorage) SavePlan(ctx context.Context, p *internal.ReadingPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.plans[p.ID] = &cp
	requestSave(s.savePlansChan)
	return nil
}

// --- UserPlanRepository ---

func (s *FileStorage) CreateUserPlan(ctx context.Context, up *internal.UserPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := cloneUserPlan(up)
	s.userPlans[up.ID] = cp
	s.userPlanIndex[up.UserID] = append(s.userPlanIndex[up.UserID], cp)
	requestSave(s.saveUserPlansChan)
	return nil
}

func (s *FileStorage) GetUserPlan(ctx context.Context, userPlanID string) (*internal.UserPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	up, ok := s.userPlans[userPlanID]
	if !ok {
		return nil, plan.ErrUserPlanNotFound
	}
	return cloneUserPlan(up), nil
}

func (s *FileStorage) ListUserPlans(ctx context.Context, userID string) ([]internal.UserPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.userPlanIndex[userID]
	out := make([]internal.UserPlan, 0, len(idx))
	for _, up := range idx {
		out = append(out, *cloneUserPlan(up))
	}
	return out, nil
}

func (s *FileStorage) UpdateUserPlan(ctx context.Context, up *internal.UserPlan, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.updateUserPlanLocked(up, expectedVersion); err != nil {
		return err
	}
	requestSave(s.saveUserPlansChan)
	return nil
}

func (s *FileStorage) updateUserPlanLocked(up *internal.UserPlan, expectedVersion int64) error {
	stored, ok := s.userPlans[up.ID]
	if !ok {
		return plan.ErrUserPlanNotFound
	}
	if stored.Version != expectedVersion {
		return plan.ErrStaleState
	}
	up.Version = expectedVersion + 1
	cp := cloneUserPlan(up)

	idx := s.userPlanIndex[stored.UserID]
	for i, existing := range idx {
		if existing.ID == up.ID {
			idx[i] = cp
			break
		}
	}
	s.userPlans[up.ID] = cp
	return nil
}

// --- ProgressRepository ---

func (s *FileStorage) GetProgress(ctx context.Context, userPlanID, date string) (*internal.DailyProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.progress[progressKey(userPlanID, date)]
	if !ok {
		return nil, nil
	}
	return cloneProgress(r), nil
}

func (s *FileStorage) ListProgressByUser(ctx context.Context, userID string) ([]internal.DailyProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.progressIndex[userID]
	out := make([]internal.DailyProgress, 0, len(idx))
	for _, r := range idx {
		out = append(out, *cloneProgress(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (s *FileStorage) UpsertProgress(ctx context.Context, rec *internal.DailyProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertProgressLocked(rec)
	requestSave(s.saveProgressChan)
	return nil
}

func (s *FileStorage) upsertProgressLocked(rec *internal.DailyProgress) {
	key := progressKey(rec.UserPlanID, rec.Date)
	now := time.Now()
	if existing, ok := s.progress[key]; ok {
		existing.CompletedSections = append([]string(nil), rec.CompletedSections...)
		existing.IsComplete = rec.IsComplete
		existing.Notes = rec.Notes
		existing.UpdatedAt = now
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		rec.UpdatedAt = now
		return
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now
	cp := cloneProgress(rec)
	s.progress[key] = cp
	s.progressIndex[rec.UserID] = append(s.progressIndex[rec.UserID], cp)
}

// --- ProfileRepository ---

func (s *FileStorage) GetProfile(ctx context.Context, userID string) (*internal.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *FileStorage) UpsertProfile(ctx context.Context, p *internal.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.profiles[p.UserID] = &cp
	requestSave(s.saveProfilesChan)
	return nil
}

// --- MutationStore ---

func (s *FileStorage) ApplyMutation(ctx context.Context, up *internal.UserPlan, expectedVersion int64, rec *internal.DailyProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.updateUserPlanLocked(up, expectedVersion); err != nil {
		return err
	}
	if rec != nil {
		s.upsertProgressLocked(rec)
		requestSave(s.saveProgressChan)
	}
	requestSave(s.saveUserPlansChan)
	return nil
}

func cloneUserPlan(up *internal.UserPlan) *internal.UserPlan {
	cp := *up
	if up.ListPositions != nil {
		cp.ListPositions = make(map[string]int, len(up.ListPositions))
		for k, v := range up.ListPositions {
			cp.ListPositions[k] = v
		}
	}
	if up.CompletedAt != nil {
		t := *up.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

func cloneProgress(r *internal.DailyProgress) *internal.DailyProgress {
	cp := *r
	cp.CompletedSections = append([]string(nil), r.CompletedSections...)
	return &cp
}

// --- Compile-time assertions ---
var _ PlanRepository = (*FileStorage)(nil)
var _ UserPlanRepository = (*FileStorage)(nil)
var _ ProgressRepository = (*FileStorage)(nil)
var _ ProfileRepository = (*FileStorage)(nil)
var _ MutationStore = (*FileStorage)(nil)
