package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// FeedPage returns one page of the post feed.
func (c *Client) FeedPage(ctx context.Context, page, limit int) ([]Post, error) {
	var posts []Post
	path := fmt.Sprintf("/posts?page=%d&limit=%d", page, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) CreatePost(ctx context.Context, in CreatePostInput) (*Post, error) {
	var p Post
	if err := c.do(ctx, http.MethodPost, "/posts", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// LikePost toggles the like on a post and reports the new state.
func (c *Client) LikePost(ctx context.Context, postID string) (*LikeResult, error) {
	var res LikeResult
	path := "/posts/" + url.PathEscape(postID) + "/like"
	if err := c.do(ctx, http.MethodPost, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CommentOnPost(ctx context.Context, postID, text string) (*Comment, error) {
	var cm Comment
	path := "/posts/" + url.PathEscape(postID) + "/comments"
	body := map[string]string{"text": text}
	if err := c.do(ctx, http.MethodPost, path, body, &cm); err != nil {
		return nil, err
	}
	return &cm, nil
}

func (c *Client) Comments(ctx context.Context, postID string) ([]Comment, error) {
	var cms []Comment
	path := "/posts/" + url.PathEscape(postID) + "/comments"
	if err := c.do(ctx, http.MethodGet, path, nil, &cms); err != nil {
		return nil, err
	}
	return cms, nil
}

// Stories returns the active (unexpired) stories for the user's graph.
func (c *Client) Stories(ctx context.Context) ([]Story, error) {
	var stories []Story
	if err := c.do(ctx, http.MethodGet, "/stories", nil, &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

func (c *Client) PostStory(ctx context.Context, in StoryInput) (*Story, error) {
	var s Story
	if err := c.do(ctx, http.MethodPost, "/stories", in, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Follow(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(userID)+"/follow", nil, nil)
}

func (c *Client) Unfollow(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(userID)+"/follow", nil, nil)
}
