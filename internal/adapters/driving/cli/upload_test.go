package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/usermgr/internal/core/domain"
)

func uploadedPlaces() []*domain.Place {
	ok := testPlace("p1", "Kisumu CHU", "Jane")
	ok.SetCredentials("jane", "S3cret!pass")
	ok.SetState(domain.UploadSuccess)

	failed := testPlace("p2", "Nyalenda CHU", "Otieno")
	failed.SetState(domain.UploadFailure)
	failed.SetUploadError("could not create user Otieno")

	invalid := testPlace("p3", "Manyatta CHU", "")
	invalid.ValidationErrors["contact_name"] = "missing"

	return []*domain.Place{ok, failed, invalid}
}

func TestUploadCmd(t *testing.T) {
	places := &mockPlaceService{places: uploadedPlaces()}
	buf := setupServices(t, &mockSessionService{session: testSession()}, places)

	rootCmd.SetArgs([]string{"upload", "p1", "p2", "p3"})
	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p3"}, places.uploadIDs)
	out := buf.String()
	assert.Contains(t, out, "Uploading to chis.example.org...")
	assert.Contains(t, out, "OK      Kisumu CHU: jane / S3cret!pass")
	assert.Contains(t, out, "FAILED  Nyalenda CHU: could not create user Otieno")
	assert.Contains(t, out, "SKIPPED Manyatta CHU: 1 validation error(s)")
	assert.Contains(t, out, "1 succeeded, 1 failed, 1 skipped")
}

func TestUploadCmd_AllPlaces(t *testing.T) {
	places := &mockPlaceService{}
	buf := setupServices(t, &mockSessionService{session: testSession()}, places)

	rootCmd.SetArgs([]string{"upload"})
	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Empty(t, places.uploadIDs)
	assert.Contains(t, buf.String(), "No places to upload.")
}

func TestUploadCmd_Aborted(t *testing.T) {
	places := &mockPlaceService{places: uploadedPlaces()[:1], err: domain.ErrAuthorization}
	buf := setupServices(t, &mockSessionService{session: testSession()}, places)

	rootCmd.SetArgs([]string{"upload"})
	err := rootCmd.Execute()

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthorization)
	assert.Contains(t, err.Error(), "upload aborted")
	assert.Contains(t, buf.String(), "1 succeeded")
}

func TestUploadCmd_TUIRequiresUploadManager(t *testing.T) {
	setupServices(t, &mockSessionService{session: testSession()}, &mockPlaceService{})

	rootCmd.SetArgs([]string{"upload", "--tui"})
	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload manager not configured")
}
