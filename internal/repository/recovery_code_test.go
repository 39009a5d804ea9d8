// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"

	"codeberg.org/stemmww/recipeshare/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func hashCodes(t *testing.T, codes ...string) []string {
	t.Helper()
	hashes := make([]string, 0, len(codes))
	for _, code := range codes {
		hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.MinCost)
		require.NoError(t, err)
		hashes = append(hashes, string(hash))
	}
	return hashes
}

func TestReplaceRecoveryCodes(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "alice@example.com")

	require.NoError(t, repo.ReplaceRecoveryCodes(ctx, user.ID, hashCodes(t, "aaaa-bbbb", "cccc-dddd")))
	count, err := repo.GetUnusedRecoveryCodeCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, repo.ReplaceRecoveryCodes(ctx, user.ID, hashCodes(t, "eeee-ffff")))
	count, err = repo.GetUnusedRecoveryCodeCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUseRecoveryCode(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "alice@example.com")
	require.NoError(t, repo.ReplaceRecoveryCodes(ctx, user.ID, hashCodes(t, "aaaa-bbbb", "cccc-dddd")))

	ok, err := repo.UseRecoveryCode(ctx, user.ID, "cccc-dddd")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UseRecoveryCode(ctx, user.ID, "cccc-dddd")
	require.NoError(t, err)
	assert.False(t, ok, "a code can only be used once")

	ok, err = repo.UseRecoveryCode(ctx, user.ID, "zzzz-zzzz")
	require.NoError(t, err)
	assert.False(t, ok)

	codes, err := repo.GetUnusedRecoveryCodes(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, codes, 1)
}

func TestUseRecoveryCode_OtherUser(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	alice := testutil.NewTestUser(t, repo, "alice@example.com")
	bob := testutil.NewTestUser(t, repo, "bob@example.com")
	require.NoError(t, repo.ReplaceRecoveryCodes(ctx, alice.ID, hashCodes(t, "aaaa-bbbb")))

	ok, err := repo.UseRecoveryCode(ctx, bob.ID, "aaaa-bbbb")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteRecoveryCodes(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "alice@example.com")
	require.NoError(t, repo.ReplaceRecoveryCodes(ctx, user.ID, hashCodes(t, "aaaa-bbbb")))

	require.NoError(t, repo.DeleteRecoveryCodes(ctx, user.ID))

	count, err := repo.GetUnusedRecoveryCodeCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
