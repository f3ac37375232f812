//go:build integration

package identity_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"membergate/internal/identity"
	id "membergate/pkg/domain"
	"membergate/pkg/testutil/containers"
)

type PostgresDirectorySuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	directory *identity.PostgresDirectory
}

func TestPostgresDirectorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresDirectorySuite))
}

func (s *PostgresDirectorySuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.directory = identity.NewPostgresDirectory(s.postgres.DB)
}

func (s *PostgresDirectorySuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "vetting_audit_log", "vetting_applications", "users")
	s.Require().NoError(err)
}

func (s *PostgresDirectorySuite) seedUser(role identity.Role) id.UserID {
	userID := id.NewUserID()
	_, err := s.postgres.DB.Exec(
		`INSERT INTO users (id, email, display_name, role) VALUES ($1, $2, 'Test User', $3)`,
		userID.String(), uuid.NewString()+"@example.com", string(role))
	s.Require().NoError(err)
	return userID
}

func (s *PostgresDirectorySuite) TestFindByID() {
	ctx := context.Background()
	userID := s.seedUser(identity.RoleMember)

	user, err := s.directory.FindByID(ctx, userID)
	s.Require().NoError(err)
	s.Equal(userID, user.ID)
	s.Equal(identity.RoleMember, user.Role)
	s.Equal("Test User", user.DisplayName)
}

func (s *PostgresDirectorySuite) TestFindByIDNotFound() {
	_, err := s.directory.FindByID(context.Background(), id.NewUserID())
	s.ErrorIs(err, identity.ErrNotFound)
}

func (s *PostgresDirectorySuite) TestElevateToVettedMember() {
	ctx := context.Background()
	userID := s.seedUser(identity.RoleMember)

	s.Require().NoError(s.directory.ElevateToVettedMember(ctx, userID))

	user, err := s.directory.FindByID(ctx, userID)
	s.Require().NoError(err)
	s.Equal(identity.RoleVettedMember, user.Role)
}

func (s *PostgresDirectorySuite) TestElevationNeverDowngrades() {
	ctx := context.Background()
	adminID := s.seedUser(identity.RoleAdministrator)

	s.Require().NoError(s.directory.ElevateToVettedMember(ctx, adminID))

	user, err := s.directory.FindByID(ctx, adminID)
	s.Require().NoError(err)
	s.Equal(identity.RoleAdministrator, user.Role, "administrator approving their own record keeps the role")
}

func (s *PostgresDirectorySuite) TestElevateUnknownUser() {
	err := s.directory.ElevateToVettedMember(context.Background(), id.NewUserID())
	s.ErrorIs(err, identity.ErrNotFound)
}
