package api

import (
	"time"

	"github.com/luvhive/hivelink/internal/session"
)

// User is the full profile record the backend returns for /auth/me.
type User struct {
	ID         string    `json:"id"`
	FullName   string    `json:"fullName"`
	Username   string    `json:"username"`
	Bio        string    `json:"bio,omitempty"`
	Avatar     string    `json:"profileImage,omitempty"`
	Age        int       `json:"age,omitempty"`
	Gender     string    `json:"gender,omitempty"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (u *User) profile() *session.Profile {
	return &session.Profile{
		ID:       u.ID,
		FullName: u.FullName,
		Username: u.Username,
		Avatar:   u.Avatar,
	}
}

// AuthResponse is returned by login, registration and external-auth
// callbacks. A successful response always carries a fresh token.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type RegisterRequest struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
}

type Post struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Username      string    `json:"username"`
	Caption       string    `json:"caption"`
	MediaURL      string    `json:"mediaUrl,omitempty"`
	MediaType     string    `json:"mediaType,omitempty"`
	LikesCount    int       `json:"likesCount"`
	CommentsCount int       `json:"commentsCount"`
	Liked         bool      `json:"isLiked"`
	CreatedAt     time.Time `json:"createdAt"`
}

type CreatePostInput struct {
	Caption   string `json:"caption"`
	MediaURL  string `json:"mediaUrl,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

type Story struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	MediaURL  string    `json:"mediaUrl"`
	MediaType string    `json:"mediaType"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

type StoryInput struct {
	MediaURL  string `json:"mediaUrl"`
	MediaType string `json:"mediaType"`
}

type Conversation struct {
	ID           string    `json:"id"`
	PeerID       string    `json:"peerId"`
	PeerName     string    `json:"peerName"`
	PeerUsername string    `json:"peerUsername"`
	LastMessage  string    `json:"lastMessage,omitempty"`
	UnreadCount  int       `json:"unreadCount"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Text           string    `json:"text,omitempty"`
	Kind           string    `json:"kind"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Notification struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	ActorID   string    `json:"actorId"`
	ActorName string    `json:"actorName"`
	Text      string    `json:"text"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// IncomingCall is the transient record describing a call waiting to be
// accepted. It has no local persistence: a newer poll result supersedes it
// and accept/reject discards it.
type IncomingCall struct {
	MessageID      string          `json:"messageId"`
	Kind           string          `json:"callType"`
	RoomURL        string          `json:"roomUrl,omitempty"`
	MeetingID      string          `json:"meetingId,omitempty"`
	Caller         session.Profile `json:"caller"`
	ConversationID string          `json:"conversationId"`
}

// VerificationStatus reports the user's position in the verification-tier
// progression. Scoring happens server-side.
type VerificationStatus struct {
	Tier        string   `json:"tier"`
	Score       int      `json:"score"`
	NextTier    string   `json:"nextTier,omitempty"`
	Outstanding []string `json:"outstanding,omitempty"`
}
