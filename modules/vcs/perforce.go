// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package vcs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/minhkhoango/p4-stack-go/modules/command"
	"github.com/minhkhoango/p4-stack-go/modules/keyring"
	"github.com/minhkhoango/p4-stack-go/modules/rebase"
)

// Client is the concrete Perforce implementation of the VCS adapter
// contract (§6). Every operation shells to the real p4 binary in its
// machine-readable JSON mode (`-Mj=1 -ztag`), which emits one JSON object
// per record, decoded here with a streaming json.Decoder rather than a
// newline-oriented scanner since p4 does not guarantee one record per
// line.
type Client struct {
	user  string
	port  string
	cache *ristretto.Cache[string, []byte]
}

var _ rebase.Adapter = (*Client)(nil)

// NewClient connects to Perforce by resolving the current user (P4USER or
// the environment p4 itself already respects) and verifying the session is
// live. port, when non-empty, overrides $P4PORT for every invocation this
// client makes (e.g. a config file's p4.port); empty leaves p4's own
// environment/P4CONFIG resolution untouched. A small per-invocation cache
// absorbs repeat print_at reads of the same CL within one engine run;
// Shelve drops a CL's cached entry, since it changes that CL's shelf.
func NewClient(ctx context.Context, user, port string) (*Client, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 1e4,
		MaxCost:     1 << 24, // 16MiB of cached VCS responses per invocation
		BufferItems: 64,
	})
	if err != nil {
		return nil, rebase.NewErrOperationFailed("create response cache", err)
	}
	c := &Client{user: user, port: port, cache: cache}
	if _, err := c.run(ctx, "info"); err != nil {
		return nil, err
	}
	return c, nil
}

// extraEnv returns the P4PORT override to append to a subprocess's
// environment, or nil when none was configured.
func (c *Client) extraEnv() []string {
	if c.port == "" {
		return nil
	}
	return []string{"P4PORT=" + c.port}
}

// run invokes `p4 -Mj=1 -ztag <args...>` and decodes the concatenated JSON
// records from stdout. A "code":"error" record is translated to the
// matching tagged error.
func (c *Client) run(ctx context.Context, args ...string) ([]map[string]any, error) {
	fullArgs := append([]string{"-Mj=1", "-ztag"}, args...)
	var stdout, stderr bytes.Buffer
	cmd := command.NewFromOptions(ctx, &command.RunOpts{
		Stdout:    &stdout,
		Stderr:    &stderr,
		NoSetpgid: true,
		ExtraEnv:  c.extraEnv(),
	}, "p4", fullArgs...)
	runErr := cmd.Run()

	dec := json.NewDecoder(&stdout)
	var records []map[string]any
	for {
		var rec map[string]any
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				break
			}
			return nil, rebase.NewErrOperationFailed("decode p4 "+args[0]+" output", err)
		}
		if code, _ := rec["code"].(string); code == "error" {
			msg, _ := rec["data"].(string)
			if isLoginError(msg) {
				return nil, &ErrLoginRequired{Cause: fmt.Errorf("%s", msg)}
			}
			if strings.Contains(strings.ToLower(msg), "must resolve") {
				return nil, &ErrConflict{Detail: msg}
			}
			if strings.Contains(msg, "no such file") || strings.Contains(msg, "not exist") {
				return nil, &ErrNotFound{What: args[0]}
			}
			return nil, NewErrOperationFailed(args[0], fmt.Errorf("%s", msg))
		}
		records = append(records, rec)
	}
	if runErr != nil {
		msg := stderr.String()
		if isLoginError(msg) {
			return nil, &ErrLoginRequired{Cause: runErr}
		}
		return nil, NewErrOperationFailed(args[0], runErr)
	}
	return records, nil
}

func str(rec map[string]any, key string) string {
	v, _ := rec[key].(string)
	return v
}

// ListPendingChanges returns the current user's pending changelists in
// long-description form.
func (c *Client) ListPendingChanges(ctx context.Context) ([]rebase.PendingChange, error) {
	recs, err := c.run(ctx, "changes", "-s", "pending", "-u", c.user, "-l")
	if err != nil {
		return nil, err
	}
	out := make([]rebase.PendingChange, 0, len(recs))
	for _, r := range recs {
		cl, err := strconv.Atoi(str(r, "change"))
		if err != nil {
			continue
		}
		out = append(out, rebase.PendingChange{CL: cl, Desc: str(r, "desc")})
	}
	return out, nil
}

// Describe returns a pending CL's description and status.
func (c *Client) Describe(ctx context.Context, cl int) (desc, status string, err error) {
	recs, err := c.run(ctx, "describe", "-s", strconv.Itoa(cl))
	if err != nil {
		return "", "", err
	}
	if len(recs) == 0 {
		return "", "", &ErrNotFound{What: fmt.Sprintf("changelist %d", cl)}
	}
	return str(recs[0], "desc"), str(recs[0], "status"), nil
}

// CreateChange creates a new empty pending changelist and returns its
// number.
func (c *Client) CreateChange(ctx context.Context, desc string) (int, error) {
	specRecs, err := c.run(ctx, "change", "-o")
	if err != nil {
		return 0, err
	}
	if len(specRecs) == 0 {
		return 0, NewErrOperationFailed("change -o", fmt.Errorf("empty spec"))
	}
	spec := specRecs[0]
	spec["Description"] = desc

	var input bytes.Buffer
	fmt.Fprintf(&input, "Change:\tnew\n")
	fmt.Fprintf(&input, "Client:\t%s\n", str(spec, "Client"))
	fmt.Fprintf(&input, "Status:\tnew\n")
	fmt.Fprintf(&input, "Description:\n\t%s\n", strings.ReplaceAll(desc, "\n", "\n\t"))

	var stdout, stderr bytes.Buffer
	cmd := command.NewFromOptions(ctx, &command.RunOpts{
		Stdin:     &input,
		Stdout:    &stdout,
		Stderr:    &stderr,
		NoSetpgid: true,
		ExtraEnv:  c.extraEnv(),
	}, "p4", "change", "-i")
	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if isLoginError(msg) {
			return 0, &ErrLoginRequired{Cause: err}
		}
		return 0, NewErrOperationFailed("change -i", err)
	}
	// "Change 215 created."
	fields := strings.Fields(stdout.String())
	for i, f := range fields {
		if f == "Change" && i+1 < len(fields) {
			if n, err := strconv.Atoi(fields[i+1]); err == nil {
				return n, nil
			}
		}
	}
	return 0, NewErrOperationFailed("change -i", fmt.Errorf("could not parse new CL number from %q", stdout.String()))
}

// DeleteChange deletes a pending, unshelved changelist.
func (c *Client) DeleteChange(ctx context.Context, cl int) error {
	_, err := c.run(ctx, "change", "-d", strconv.Itoa(cl))
	return err
}

// IsShelved reports whether cl has any shelved files.
func (c *Client) IsShelved(ctx context.Context, cl int) (bool, error) {
	recs, err := c.run(ctx, "describe", "-S", "-s", strconv.Itoa(cl))
	if err != nil {
		if IsErrNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return len(recs) > 0 && str(recs[0], "depotFile") != "", nil
}

// Shelve shelves (force=true replaces, delete=true removes) the files
// currently open in cl.
func (c *Client) Shelve(ctx context.Context, cl int, force, delete bool) error {
	args := []string{"shelve"}
	switch {
	case delete:
		args = append(args, "-d")
	case force:
		args = append(args, "-f")
	}
	args = append(args, "-c", strconv.Itoa(cl))
	_, err := c.run(ctx, args...)
	c.cache.Del(fmt.Sprintf("print:%d", cl))
	return err
}

// Unshelve copies src's shelved files into dst's workspace.
func (c *Client) Unshelve(ctx context.Context, src, dst int) error {
	_, err := c.run(ctx, "unshelve", "-s", strconv.Itoa(src), "-c", strconv.Itoa(dst))
	return err
}

// FilesInDefault returns the depot paths of every file currently open in
// the default changelist, for moving into a freshly created stack entry.
func (c *Client) FilesInDefault(ctx context.Context) ([]string, error) {
	recs, err := c.run(ctx, "opened", "-c", "default")
	if err != nil {
		if oe, ok := err.(*ErrOperationFailed); ok && strings.Contains(oe.Cause.Error(), "not opened") {
			return nil, nil
		}
		return nil, err
	}
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		if p := str(r, "depotFile"); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// Reopen moves depotPaths (already opened somewhere) into cl.
func (c *Client) Reopen(ctx context.Context, cl int, depotPaths ...string) error {
	if len(depotPaths) == 0 {
		return nil
	}
	args := append([]string{"reopen", "-c", strconv.Itoa(cl)}, depotPaths...)
	_, err := c.run(ctx, args...)
	return err
}

// UpdateDescription rewrites cl's description in place via `p4 change -i`.
func (c *Client) UpdateDescription(ctx context.Context, cl int, desc string) error {
	specRecs, err := c.run(ctx, "change", "-o", strconv.Itoa(cl))
	if err != nil {
		return err
	}
	if len(specRecs) == 0 {
		return NewErrOperationFailed("change -o", fmt.Errorf("empty spec for %d", cl))
	}
	spec := specRecs[0]

	var input bytes.Buffer
	fmt.Fprintf(&input, "Change:\t%d\n", cl)
	fmt.Fprintf(&input, "Client:\t%s\n", str(spec, "Client"))
	fmt.Fprintf(&input, "Status:\tpending\n")
	fmt.Fprintf(&input, "Description:\n\t%s\n", strings.ReplaceAll(desc, "\n", "\n\t"))

	var stdout, stderr bytes.Buffer
	cmd := command.NewFromOptions(ctx, &command.RunOpts{
		Stdin:     &input,
		Stdout:    &stdout,
		Stderr:    &stderr,
		NoSetpgid: true,
		ExtraEnv:  c.extraEnv(),
	}, "p4", "change", "-i")
	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if isLoginError(msg) {
			return &ErrLoginRequired{Cause: err}
		}
		return NewErrOperationFailed("change -i", err)
	}
	return nil
}

// Submit submits cl's opened files to the depot and returns the
// resulting submitted changelist number (p4 renumbers on submit).
func (c *Client) Submit(ctx context.Context, cl int) (int, error) {
	recs, err := c.run(ctx, "submit", "-c", strconv.Itoa(cl))
	if err != nil {
		return 0, err
	}
	for i := len(recs) - 1; i >= 0; i-- {
		if n := str(recs[i], "submittedChange"); n != "" {
			if v, err := strconv.Atoi(n); err == nil {
				return v, nil
			}
		}
	}
	return cl, nil
}

// OpenedFiles returns the workspace-local client paths of every file
// currently opened in cl, for handing to the external editor.
func (c *Client) OpenedFiles(ctx context.Context, cl int) ([]string, error) {
	recs, err := c.run(ctx, "opened", "-c", strconv.Itoa(cl))
	if err != nil {
		if oe, ok := err.(*ErrOperationFailed); ok && strings.Contains(oe.Cause.Error(), "not opened") {
			return nil, nil
		}
		return nil, err
	}
	paths := make([]string, 0, len(recs))
	for _, r := range recs {
		if p := str(r, "clientFile"); p != "" {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// Revert reverts every file currently opened in cl. Perforce reports "not
// opened" when there is nothing to revert; this is not an error.
func (c *Client) Revert(ctx context.Context, cl int) error {
	_, err := c.run(ctx, "revert", "-c", strconv.Itoa(cl), "//...")
	if err != nil {
		if oe, ok := err.(*ErrOperationFailed); ok {
			msg := oe.Cause.Error()
			if strings.Contains(msg, "not opened") || strings.Contains(msg, "file(s) not open") {
				return nil
			}
		}
		return err
	}
	return nil
}

// OpenForEdit batches `p4 edit` over depotPaths into cl.
func (c *Client) OpenForEdit(ctx context.Context, cl int, depotPaths ...string) error {
	if len(depotPaths) == 0 {
		return nil
	}
	args := append([]string{"edit", "-c", strconv.Itoa(cl)}, depotPaths...)
	_, err := c.run(ctx, args...)
	return err
}

// OpenForDelete batches `p4 delete` over depotPaths into cl.
func (c *Client) OpenForDelete(ctx context.Context, cl int, depotPaths ...string) error {
	if len(depotPaths) == 0 {
		return nil
	}
	args := append([]string{"delete", "-c", strconv.Itoa(cl)}, depotPaths...)
	_, err := c.run(ctx, args...)
	return err
}

// Where maps a depot path to its local client path.
func (c *Client) Where(ctx context.Context, depotPath string) (string, error) {
	recs, err := c.run(ctx, "where", depotPath)
	if err != nil {
		return "", err
	}
	if len(recs) == 0 {
		return "", &ErrNotFound{What: depotPath}
	}
	path := str(recs[0], "path")
	if path == "" {
		return "", NewErrOperationFailed("where", fmt.Errorf("%s not in client view", depotPath))
	}
	return path, nil
}

// PrintAt returns every shelved file's metadata and content for cl. p4
// print alternates metadata and content records even under -Mj=1; content
// arrives as a "data" field on a record whose code is "text"/"binary"
// rather than "stat", so both are decoded through the same generic record
// stream and paired up by position.
func (c *Client) PrintAt(ctx context.Context, cl int) ([]rebase.PrintRecord, error) {
	if cached, ok := c.cache.Get(fmt.Sprintf("print:%d", cl)); ok {
		var out []rebase.PrintRecord
		if err := json.Unmarshal(cached, &out); err == nil {
			return out, nil
		}
	}
	recs, err := c.run(ctx, "print", fmt.Sprintf("//...@=%d", cl))
	if err != nil {
		if IsErrNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []rebase.PrintRecord
	var pendingDepot string
	for _, r := range recs {
		if depot := str(r, "depotFile"); depot != "" {
			pendingDepot = depot
			continue
		}
		if data, ok := r["data"].(string); ok && pendingDepot != "" {
			out = append(out, rebase.PrintRecord{DepotFile: pendingDepot, Content: []byte(data)})
			pendingDepot = ""
		}
	}
	if encoded, err := json.Marshal(out); err == nil {
		c.cache.Set(fmt.Sprintf("print:%d", cl), encoded, int64(len(encoded)))
	}
	return out, nil
}

// Property resolves a P4 server property by name, e.g. "P4.Swarm.URL".
// An unset property is reported as ("", nil), not an error.
func (c *Client) Property(ctx context.Context, name string) (string, error) {
	recs, err := c.run(ctx, "property", "-l", "-n", name)
	if err != nil {
		if IsErrNotFound(err) {
			return "", nil
		}
		return "", err
	}
	if len(recs) == 0 {
		return "", nil
	}
	return str(recs[0], "value"), nil
}

// Ticket returns the current P4 session ticket for host, as reported by
// `p4 tickets`, for reuse as Swarm's basic-auth credential. A missing
// ticket is reported as ("", nil). The OS keyring is checked first so a
// Swarm-heavy session (upload/review against a long stack) doesn't shell
// to `p4 tickets` on every request; a keyring miss falls through to p4
// and backfills the keyring for next time.
func (c *Client) Ticket(ctx context.Context, host string) (string, error) {
	target := keyringTarget(host, c.user)
	if cred, err := keyring.Find(ctx, target); err == nil {
		return cred.Password, nil
	}

	recs, err := c.run(ctx, "tickets")
	if err != nil {
		return "", err
	}
	for _, r := range recs {
		if str(r, "Host") == host && str(r, "User") == c.user {
			ticket := str(r, "Ticket")
			_ = keyring.Store(ctx, target, &keyring.Cred{UserName: c.user, Password: ticket})
			return ticket, nil
		}
	}
	return "", nil
}

func keyringTarget(host, user string) string {
	return fmt.Sprintf("p4-stack:%s:%s", host, user)
}

// User returns the P4 user this client is connected as, for building the
// Swarm basic-auth credential.
func (c *Client) User() string { return c.user }

// Close releases the per-invocation response cache.
func (c *Client) Close() {
	c.cache.Close()
}
