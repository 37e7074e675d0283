package faceRepository

import (
	"sort"
	"time"

	"golang.org/x/net/context"

	"face-attendance/internal/api/face"
	"face-attendance/internal/entity"
)

func (r *repository) SaveSignature(ctx context.Context, username string, signature uint64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	user, exists := r.users[username]
	if !exists {
		user = &entity.User{
			Username:  username,
			CreatedAt: now,
		}
		r.users[username] = user
	}

	user.Signatures = append(user.Signatures, signature)
	user.UpdatedAt = now

	return len(user.Signatures), nil
}

func (r *repository) GetUser(ctx context.Context, username string) (entity.User, error) {
	if err := ctx.Err(); err != nil {
		return entity.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[username]
	if !exists {
		return entity.User{}, face.ErrUserNotFound
	}

	return *user, nil
}

func (r *repository) AllUsers(ctx context.Context) ([]entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]entity.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, *user)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})

	return users, nil
}

func (r *repository) Usernames(ctx context.Context) ([]string, error) {
	users, err := r.AllUsers(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(users))
	for _, user := range users {
		names = append(names, user.Username)
	}

	return names, nil
}
