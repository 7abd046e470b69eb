package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/paiban/homevisit/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePatientStore struct {
	rows      map[uuid.UUID]*model.Patient
	createErr error
}

func (s *fakePatientStore) GetByID(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	return s.rows[id], nil
}

func (s *fakePatientStore) Create(_ context.Context, p *model.Patient) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.rows[p.ID] = p
	return nil
}

type fakeProfessionalStore struct {
	rows map[uuid.UUID]*model.Professional
}

func (s *fakeProfessionalStore) GetByID(_ context.Context, id uuid.UUID) (*model.Professional, error) {
	return s.rows[id], nil
}

func (s *fakeProfessionalStore) Create(_ context.Context, p *model.Professional) error {
	s.rows[p.ID] = p
	return nil
}

var (
	_ PatientStore      = (*PatientRepository)(nil)
	_ ProfessionalStore = (*ProfessionalRepository)(nil)
)

func TestSeed(t *testing.T) {
	snap, err := ReadSnapshot(strings.NewReader(snapshotJSON))
	require.NoError(t, err)

	patients := &fakePatientStore{rows: map[uuid.UUID]*model.Patient{}}
	professionals := &fakeProfessionalStore{rows: map[uuid.UUID]*model.Professional{}}
	ctx := context.Background()

	first, err := Seed(ctx, snap, patients, professionals)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{PatientsCreated: 3, ProfessionalsCreated: 3}, first)
	assert.Len(t, patients.rows, 3)

	// 重复导入全部跳过
	second, err := Seed(ctx, snap, patients, professionals)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{PatientsSkipped: 3, ProfessionalsSkipped: 3}, second)
	assert.Len(t, professionals.rows, 3)
}

func TestSeed_CreateError(t *testing.T) {
	snap, err := ReadSnapshot(strings.NewReader(snapshotJSON))
	require.NoError(t, err)

	boom := errors.New("写入失败")
	patients := &fakePatientStore{rows: map[uuid.UUID]*model.Patient{}, createErr: boom}
	professionals := &fakeProfessionalStore{rows: map[uuid.UUID]*model.Professional{}}

	res, err := Seed(context.Background(), snap, patients, professionals)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, res.ProfessionalsCreated)
	assert.Zero(t, res.PatientsCreated)
}
