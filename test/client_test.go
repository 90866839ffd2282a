//go:build integration_test || all_tests

package test

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var csrfRegex = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

// client is a browser-like http client, keeping cookies between requests.
type client struct {
	t    *testing.T
	http *http.Client
}

type page struct {
	StatusCode int
	Path       string
	Body       string
}

func newClient(t *testing.T) *client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{
		t:    t,
		http: &http.Client{Jar: jar},
	}
}

func (c *client) get(path string) page {
	resp, err := c.http.Get(serverEndpoint + path)
	require.NoError(c.t, err)
	return c.read(resp)
}

func (c *client) postForm(path string, values url.Values) page {
	resp, err := c.http.PostForm(serverEndpoint+path, values)
	require.NoError(c.t, err)
	return c.read(resp)
}

func (c *client) postMultipart(path string, values url.Values, fileField, fileName string, file []byte) page {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, vs := range values {
		for _, v := range vs {
			require.NoError(c.t, mw.WriteField(k, v))
		}
	}
	if file != nil {
		fw, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(c.t, err)
		_, err = fw.Write(file)
		require.NoError(c.t, err)
	}
	require.NoError(c.t, mw.Close())

	resp, err := c.http.Post(serverEndpoint+path, mw.FormDataContentType(), &body)
	require.NoError(c.t, err)
	return c.read(resp)
}

func (c *client) read(resp *http.Response) page {
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return page{
		StatusCode: resp.StatusCode,
		Path:       resp.Request.URL.Path,
		Body:       string(b),
	}
}

// csrf loads the given page and returns the csrf token rendered in its forms.
func (c *client) csrf(path string) string {
	p := c.get(path)
	m := csrfRegex.FindStringSubmatch(p.Body)
	require.Len(c.t, m, 2, "no csrf token on %s", path)
	return m[1]
}

func (c *client) register(username string, coach bool) {
	values := url.Values{
		"username":  {username},
		"password1": {testPassword},
		"password2": {testPassword},
	}
	if coach {
		values.Set("is_coach", "1")
	}
	values.Set("csrf_token", c.csrf("/register"))
	p := c.postForm("/create", values)
	require.Equal(c.t, http.StatusOK, p.StatusCode, p.Body)
	require.Equal(c.t, "/login", p.Path)
}

func (c *client) login(username string) {
	p := c.postForm("/login", url.Values{
		"csrf_token": {c.csrf("/login")},
		"username":   {username},
		"password":   {testPassword},
	})
	require.Equal(c.t, http.StatusOK, p.StatusCode, p.Body)
	require.Equal(c.t, "/", p.Path, p.Body)
}

// createWorkout posts a new workout as the logged-in coach and returns its page path.
func (c *client) createWorkout(date, wod, week string) string {
	token := c.csrf("/create_workout")
	p := c.postMultipart("/create_workout", url.Values{
		"csrf_token":       {token},
		"workout_date":     {date},
		"wod_description":  {wod},
		"programming_week": {week},
	}, "", "", nil)
	require.Equal(c.t, http.StatusOK, p.StatusCode, p.Body)
	require.True(c.t, strings.HasPrefix(p.Path, "/workout/"), p.Path)
	return p.Path
}

func workoutID(path string) string {
	return strings.TrimPrefix(path, "/workout/")
}

func logPath(id int) string {
	return fmt.Sprintf("/log/%d", id)
}
