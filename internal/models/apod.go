package models

// APODResponse is the subset of the api.nasa.gov/planetary/apod payload we persist.
type APODResponse struct {
	Date           string `json:"date"`
	Title          string `json:"title"`
	Explanation    string `json:"explanation"`
	URL            string `json:"url"`
	HDURL          string `json:"hdurl"`
	MediaType      string `json:"media_type"`
	ServiceVersion string `json:"service_version"`
}

// APODErrorResponse is returned by the provider for rejected queries,
// e.g. {"code":400,"msg":"Date must be between Jun 16, 1995 and Oct 18, 2026.","service_version":"v1"}.
type APODErrorResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	// api.data.gov gateway errors use a nested object instead.
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (r *APODResponse) ToCreatePost(queryString string) *CreatePostRequest {
	img := r.URL
	if img == "" {
		img = r.HDURL
	}
	return &CreatePostRequest{
		Title:       r.Title,
		QueryString: queryString,
		Explanation: r.Explanation,
		ImgURL:      img,
		ApodDate:    r.Date,
	}
}
