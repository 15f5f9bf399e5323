package api

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/itemvault/internal/audit"
	"github.com/nerrad567/itemvault/internal/item"
)

// flushAudit runs fn with the audit writer started and returns once every
// entry it queued has been written.
func flushAudit(t *testing.T, env *testEnv, fn func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	env.srv.startAuditWriter(ctx)
	fn()
	cancel()
	<-env.srv.auditDone
}

func TestAudit_RecordsActions(t *testing.T) {
	env := newTestEnv(t)
	var token string
	var created item.Item

	flushAudit(t, env, func() {
		token = env.signupAndLogin(t, "alice", "pw1").AccessToken
		env.postForm("/login", url.Values{"username": {"alice"}, "password": {"nope"}})
		w := env.authed(http.MethodPost, "/items/", token, `{"name":"book","description":"a novel"}`)
		require.Equal(t, http.StatusOK, w.Code)
		decodeBody(t, w, &created)
	})

	w := env.authed(http.MethodGet, "/audit", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result audit.ListResult
	decodeBody(t, w, &result)
	require.Equal(t, 4, result.Total)

	actions := make([]string, len(result.Logs))
	for i, l := range result.Logs {
		actions[i] = l.Action
	}
	assert.Equal(t, []string{
		audit.ActionCreate,
		audit.ActionLoginFailed,
		audit.ActionLogin,
		audit.ActionSignup,
	}, actions)

	newest := result.Logs[0]
	assert.Equal(t, audit.EntityItem, newest.EntityType)
	assert.Equal(t, created.ID, newest.EntityID)
	assert.Equal(t, "alice", newest.Username)
	assert.Equal(t, "api", newest.Source)
}

func TestAudit_Filter(t *testing.T) {
	env := newTestEnv(t)
	var token string

	flushAudit(t, env, func() {
		token = env.signupAndLogin(t, "alice", "pw1").AccessToken
		env.authed(http.MethodPost, "/items/", token, `{"name":"a","description":"1"}`)
		env.authed(http.MethodPost, "/items/", token, `{"name":"b","description":"2"}`)
	})

	w := env.authed(http.MethodGet, "/audit?entity_type=item&limit=1", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	var result audit.ListResult
	decodeBody(t, w, &result)
	assert.Equal(t, 2, result.Total)
	assert.Len(t, result.Logs, 1)
	assert.Equal(t, 1, result.Limit)
}

func TestAudit_BadPagination(t *testing.T) {
	env := newTestEnv(t)
	token := env.signupAndLogin(t, "alice", "pw1").AccessToken

	for _, q := range []string{"limit=ten", "offset=-x"} {
		w := env.authed(http.MethodGet, "/audit?"+q, token, "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, q)
	}
}

func TestAudit_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	token := env.signupAndLogin(t, "alice", "pw1").AccessToken
	env.srv.auditRepo = nil

	w := env.authed(http.MethodGet, "/audit", token, "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAuditLog_DropsWhenFull(t *testing.T) {
	env := newTestEnv(t)

	for range auditChanSize + 10 {
		env.srv.auditLog(audit.ActionCreate, audit.EntityItem, "x", "alice", nil)
	}

	assert.Len(t, env.srv.auditCh, auditChanSize)
}
