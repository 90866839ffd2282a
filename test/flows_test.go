//go:build integration_test || all_tests

package test

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	logLinkRegex   = regexp.MustCompile(`href="/log/(\d+)"`)
	imageLinkRegex = regexp.MustCompile(`src="/images/([^"]+)"`)
)

func (s *IntegrationTestSuite) TestHealth() {
	p := newClient(s.T()).get("/healthz")
	s.Equal(http.StatusOK, p.StatusCode)
	s.Equal("ok", strings.TrimSpace(p.Body))
}

func (s *IntegrationTestSuite) TestAnonymousIsSentToLogin() {
	c := newClient(s.T())
	for _, path := range []string{"/", "/logs", "/find_workout", "/new_log"} {
		p := c.get(path)
		s.Equal("/login", p.Path, path)
	}
}

func (s *IntegrationTestSuite) TestRegisterLoginLogout() {
	t := s.T()
	c := newClient(t)

	c.register("flow_athlete", false)

	// same name again
	p := c.postForm("/create", url.Values{
		"csrf_token": {c.csrf("/register")},
		"username":   {"flow_athlete"},
		"password1":  {testPassword},
		"password2":  {testPassword},
	})
	assert.Equal(t, "/create", p.Path)
	assert.Contains(t, p.Body, "username is already in use")

	p = c.postForm("/login", url.Values{
		"csrf_token": {c.csrf("/login")},
		"username":   {"flow_athlete"},
		"password":   {"wrong"},
	})
	assert.Equal(t, "/login", p.Path)
	assert.Contains(t, p.Body, "invalid username or password")

	c.login("flow_athlete")
	assert.Equal(t, "/", c.get("/login").Path)

	p = c.get("/logout")
	assert.Equal(t, "/login", c.get("/").Path)
	assert.Equal(t, http.StatusOK, p.StatusCode)

	var count int
	require.NoError(t, s.DB.QueryRow(`SELECT COUNT(*) FROM users WHERE username = $1`, "flow_athlete").Scan(&count))
	assert.Equal(t, 1, count)
}

func (s *IntegrationTestSuite) TestWorkoutLogLikeCommentFlow() {
	t := s.T()

	coach := newClient(t)
	coach.register("flow_coach", true)
	coach.login("flow_coach")

	workoutPath := coach.createWorkout("2024-03-01", "21-15-9 thrusters and pull-ups", "2")
	p := coach.get(workoutPath)
	require.Equal(t, http.StatusOK, p.StatusCode)
	assert.Contains(t, p.Body, "21-15-9 thrusters and pull-ups")
	assert.Contains(t, p.Body, "Programming week: 2")

	var week string
	require.NoError(t, s.DB.QueryRow(
		`SELECT programming_week FROM programming WHERE workout_id = $1`, workoutID(workoutPath),
	).Scan(&week))
	assert.Equal(t, "2", week)

	athlete := newClient(t)
	athlete.register("flow_member", false)
	athlete.login("flow_member")

	// only coaches edit workouts
	p = athlete.get("/edit_workout/" + workoutID(workoutPath))
	assert.Equal(t, http.StatusForbidden, p.StatusCode)
	assert.NotContains(t, athlete.get(workoutPath).Body, "Edit workout")

	addLogPath := "/add_log/" + workoutID(workoutPath)
	p = athlete.postForm(addLogPath, url.Values{
		"csrf_token": {athlete.csrf(addLogPath)},
		"log_date":   {"2024-03-02"},
		"log_notes":  {"8:41 Rx"},
	})
	require.Equal(t, http.StatusOK, p.StatusCode, p.Body)
	require.True(t, strings.HasPrefix(p.Path, "/log/"), p.Path)
	assert.Contains(t, p.Body, "8:41 Rx")
	logID, err := strconv.Atoi(strings.TrimPrefix(p.Path, "/log/"))
	require.NoError(t, err)

	// the coach likes it, then takes it back
	likePath := fmt.Sprintf("/like_result/%d", logID)
	p = coach.postForm(likePath, url.Values{"csrf_token": {coach.csrf(logPath(logID))}})
	assert.Equal(t, logPath(logID), p.Path)
	assert.Contains(t, p.Body, "Unlike")
	assert.Contains(t, p.Body, "1 likes")

	p = coach.postForm(likePath, url.Values{"csrf_token": {coach.csrf(logPath(logID))}})
	assert.Contains(t, p.Body, "0 likes")

	// a foreign log cannot be edited
	p = coach.postForm(fmt.Sprintf("/edit_log/%d", logID), url.Values{
		"csrf_token": {coach.csrf(logPath(logID))},
		"log_date":   {"2024-03-02"},
		"log_notes":  {"hacked"},
	})
	assert.Equal(t, http.StatusForbidden, p.StatusCode)

	p = athlete.postForm(workoutPath, url.Values{
		"csrf_token":   {athlete.csrf(workoutPath)},
		"comment_text": {"scaled the pull-ups"},
	})
	assert.Equal(t, workoutPath, p.Path)
	assert.Contains(t, p.Body, "scaled the pull-ups")
	assert.Contains(t, p.Body, fmt.Sprintf(`href="/log/%d"`, logID))

	p = athlete.get("/find_workout?query=thrusters")
	assert.Contains(t, p.Body, workoutPath)

	p = athlete.get("/")
	assert.Len(t, logLinkRegex.FindAllStringSubmatch(p.Body, -1), 1)

	removePath := fmt.Sprintf("/remove_log/%d", logID)
	p = athlete.postForm(removePath, url.Values{"csrf_token": {athlete.csrf(removePath)}})
	assert.Equal(t, "/", p.Path)
	assert.Equal(t, http.StatusNotFound, athlete.get(logPath(logID)).StatusCode)
}

func (s *IntegrationTestSuite) TestWorkoutImageUpload() {
	t := s.T()
	coach := newClient(t)
	coach.register("image_coach", true)
	coach.login("image_coach")

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 4, 4))))

	p := coach.postMultipart("/create_workout", url.Values{
		"csrf_token":       {coach.csrf("/create_workout")},
		"workout_date":     {"2024-04-01"},
		"wod_description":  {"5 rounds for time: 400m run"},
		"programming_week": {"deload"},
	}, "image", "wod.png", img.Bytes())
	require.Equal(t, http.StatusOK, p.StatusCode, p.Body)

	m := imageLinkRegex.FindStringSubmatch(p.Body)
	require.Len(t, m, 2, p.Body)

	imgPage := coach.get("/images/" + m[1])
	assert.Equal(t, http.StatusOK, imgPage.StatusCode)
	assert.Equal(t, img.String(), imgPage.Body)

	// not an image
	p = coach.postMultipart("/create_workout", url.Values{
		"csrf_token":       {coach.csrf("/create_workout")},
		"workout_date":     {"2024-04-02"},
		"wod_description":  {"should not be stored"},
		"programming_week": {"1"},
	}, "image", "wod.txt", []byte("plain text, definitely not a picture"))
	assert.Equal(t, http.StatusOK, p.StatusCode)
	assert.Equal(t, "/create_workout", p.Path)
	assert.Contains(t, p.Body, "image must be a JPEG, PNG or WebP file")

	var count int
	require.NoError(t, s.DB.QueryRow(
		`SELECT COUNT(*) FROM workouts WHERE wod_description = $1`, "should not be stored",
	).Scan(&count))
	assert.Zero(t, count)
}

func (s *IntegrationTestSuite) TestCSRFTokenRequired() {
	t := s.T()
	c := newClient(t)

	p := c.postForm("/login", url.Values{"username": {"nobody_here"}, "password": {testPassword}})
	assert.Equal(t, http.StatusForbidden, p.StatusCode)
	p = c.postForm("/create", url.Values{
		"username": {"csrf_less"}, "password1": {testPassword}, "password2": {testPassword},
	})
	assert.Equal(t, http.StatusForbidden, p.StatusCode)

	c.register("csrf_coach", true)
	c.login("csrf_coach")

	p = c.postForm("/create_workout", url.Values{
		"workout_date":     {"2024-05-01"},
		"wod_description":  {"no token"},
		"programming_week": {"1"},
	})
	assert.Equal(t, http.StatusForbidden, p.StatusCode)

	p = c.postForm("/create_workout", url.Values{
		"csrf_token":       {"forged"},
		"workout_date":     {"2024-05-01"},
		"wod_description":  {"bad token"},
		"programming_week": {"1"},
	})
	assert.Equal(t, http.StatusForbidden, p.StatusCode)
}
