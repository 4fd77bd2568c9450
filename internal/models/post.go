package models

import "strings"

type Post struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	QueryString string `json:"query_string"`
	Explanation string `json:"explanation"`
	ImgURL      string `json:"img_url"`
	ApodDate    string `json:"apod_date"`
}

// DisplayPost is a post as rendered for a particular viewer.
type DisplayPost struct {
	Post
	AlreadyLiked bool  `json:"already_liked"`
	NumLikes     int64 `json:"num_likes"`
}

type CreatePostRequest struct {
	Title       string `json:"title"`
	QueryString string `json:"query_string"`
	Explanation string `json:"explanation"`
	ImgURL      string `json:"img_url"`
	ApodDate    string `json:"apod_date"`
}

type UpdatePostRequest struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	QueryString string `json:"query_string"`
	Explanation string `json:"explanation"`
	ImgURL      string `json:"img_url"`
	ApodDate    string `json:"apod_date"`
}

// NasaQuery is the form body of POST /get_apod.
type NasaQuery struct {
	QueryString string `json:"query_string"`
}

func (r *CreatePostRequest) Validate() FieldErrors {
	errors := make(FieldErrors)

	if strings.TrimSpace(r.Title) == "" {
		errors["title"] = "Title is required"
	}
	if strings.TrimSpace(r.QueryString) == "" {
		errors["query_string"] = "Query string is required"
	}

	return errors
}

func (r *UpdatePostRequest) Validate() FieldErrors {
	errors := make(FieldErrors)

	if r.ID <= 0 {
		errors["id"] = "Post id is required"
	}
	if strings.TrimSpace(r.Title) == "" {
		errors["title"] = "Title is required"
	}
	if strings.TrimSpace(r.QueryString) == "" {
		errors["query_string"] = "Query string is required"
	}

	return errors
}
