package service

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freelance/internal/apperr"
	"freelance/internal/models"
	"freelance/internal/repository"
)

var (
	clientActor     = Actor{UserID: 1, Role: models.UserRoleClient}
	freelancerActor = Actor{UserID: 2, Role: models.UserRoleFreelancer}
	adminActor      = Actor{UserID: 9, Role: models.UserRoleAdmin}
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func expectProject(mock pgxmock.PgxPoolIface, id, clientID int64) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM projects p WHERE p.id = \\$1").
		WithArgs(id).
		WillReturnRows(mock.NewRows([]string{
			"id", "name", "description", "budget", "deadline", "status",
			"category_id", "client_id", "created_at", "updated_at", "skill_ids",
		}).AddRow(
			id, "Landing page", (*string)(nil), (*string)(nil), (*time.Time)(nil), models.ProjectStatusOpen,
			int64(3), clientID, now, now, []int64{},
		))
}

func expectOffer(mock pgxmock.PgxPoolIface, id, freelancerID int64) {
	deadline := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM offers WHERE id = \\$1").
		WithArgs(id).
		WillReturnRows(mock.NewRows([]string{
			"id", "message", "proposed_budget", "proposed_deadline", "project_id", "freelancer_id", "created_at",
		}).AddRow(id, "I can build this", "900.00", deadline, int64(11), freelancerID, deadline))
}

func expectReview(mock pgxmock.PgxPoolIface, id, reviewerID int64) {
	created := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM reviews WHERE id = \\$1").
		WithArgs(id).
		WillReturnRows(mock.NewRows([]string{
			"id", "rating", "comment", "project_id", "reviewer_id", "target_id", "created_at",
		}).AddRow(id, 4, (*string)(nil), int64(11), reviewerID, int64(2), created))
}

func TestProjectServiceRejectsNonOwner(t *testing.T) {
	mock := newMockPool(t)
	svc := NewProjectService(repository.NewProjectRepository(mock))

	name := "Rebrand"
	expectProject(mock, 11, clientActor.UserID)
	_, err := svc.Update(context.Background(), freelancerActor, 11, ProjectUpdate{Name: &name})
	requireKind(t, err, apperr.KindForbidden)

	expectProject(mock, 11, clientActor.UserID)
	err = svc.Delete(context.Background(), Actor{UserID: 5, Role: models.UserRoleClient}, 11)
	requireKind(t, err, apperr.KindForbidden)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectServiceOwnerAndAdminDelete(t *testing.T) {
	for name, actor := range map[string]Actor{"owner": clientActor, "admin": adminActor} {
		t.Run(name, func(t *testing.T) {
			mock := newMockPool(t)
			svc := NewProjectService(repository.NewProjectRepository(mock))

			expectProject(mock, 11, clientActor.UserID)
			mock.ExpectBegin()
			mock.ExpectExec("DELETE FROM projects WHERE id = \\$1").
				WithArgs(int64(11)).
				WillReturnResult(pgxmock.NewResult("DELETE", 1))
			mock.ExpectCommit()

			require.NoError(t, svc.Delete(context.Background(), actor, 11))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestProjectServiceMissingProject(t *testing.T) {
	mock := newMockPool(t)
	svc := NewProjectService(repository.NewProjectRepository(mock))

	mock.ExpectQuery("FROM projects p WHERE p.id = \\$1").
		WithArgs(int64(404)).
		WillReturnRows(mock.NewRows([]string{"id"}))

	err := svc.Delete(context.Background(), adminActor, 404)
	requireKind(t, err, apperr.KindNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferServiceOwnership(t *testing.T) {
	mock := newMockPool(t)
	svc := NewOfferService(repository.NewOfferRepository(mock))

	message := "Updated proposal"
	expectOffer(mock, 6, freelancerActor.UserID)
	_, err := svc.Update(context.Background(), Actor{UserID: 7, Role: models.UserRoleFreelancer}, 6, OfferUpdate{Message: &message})
	requireKind(t, err, apperr.KindForbidden)

	expectOffer(mock, 6, freelancerActor.UserID)
	requireKind(t, svc.Delete(context.Background(), clientActor, 6), apperr.KindForbidden)

	expectOffer(mock, 6, freelancerActor.UserID)
	mock.ExpectExec("DELETE FROM offers WHERE id = \\$1").
		WithArgs(int64(6)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, svc.Delete(context.Background(), freelancerActor, 6))

	expectOffer(mock, 6, freelancerActor.UserID)
	mock.ExpectExec("DELETE FROM offers WHERE id = \\$1").
		WithArgs(int64(6)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, svc.Delete(context.Background(), adminActor, 6))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewServiceRejectsSelfReview(t *testing.T) {
	mock := newMockPool(t)
	svc := NewReviewService(repository.NewReviewRepository(mock))

	_, err := svc.Create(context.Background(), clientActor, ReviewInput{
		Rating:    5,
		ProjectID: 11,
		TargetID:  clientActor.UserID,
	})
	requireKind(t, err, apperr.KindValidation)
	assert.Equal(t, "cannot review yourself", apperr.Message(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewServiceOwnership(t *testing.T) {
	mock := newMockPool(t)
	svc := NewReviewService(repository.NewReviewRepository(mock))

	rating := 1
	expectReview(mock, 3, clientActor.UserID)
	_, err := svc.Update(context.Background(), freelancerActor, 3, ReviewUpdate{Rating: &rating})
	requireKind(t, err, apperr.KindForbidden)

	expectReview(mock, 3, clientActor.UserID)
	requireKind(t, svc.Delete(context.Background(), freelancerActor, 3), apperr.KindForbidden)

	expectReview(mock, 3, clientActor.UserID)
	mock.ExpectExec("DELETE FROM reviews WHERE id = \\$1").
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, svc.Delete(context.Background(), adminActor, 3))

	assert.NoError(t, mock.ExpectationsWereMet())
}
