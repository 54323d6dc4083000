package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/vedran77/feedline/internal/service"
	"github.com/vedran77/feedline/internal/transport/http/middleware"
	"github.com/vedran77/feedline/internal/upload"
	"github.com/vedran77/feedline/pkg/validator"
)

// Multipart parts beyond this stay in memory; the rest spill to temp files.
const formMemory = 1 << 20

type PostHandler struct {
	postService    *service.PostService
	maxUploadBytes int64
}

func NewPostHandler(postService *service.PostService, maxUploadBytes int64) *PostHandler {
	return &PostHandler{postService: postService, maxUploadBytes: maxUploadBytes}
}

type likeResponse struct {
	Message string  `json:"message"`
	Likes   int     `json:"likes"`
	LikedBy []int64 `json:"likedBy"`
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.List(r.Context(), middleware.CallerID(r.Context()))
	if err != nil {
		log.Printf("ERROR list posts: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID, ok := parseID(w, r.PathValue("id"))
	if !ok {
		return
	}

	post, err := h.postService.Get(r.Context(), postID, middleware.CallerID(r.Context()))
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Post not found")
		} else {
			log.Printf("ERROR get post: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.ListByUser(r.Context(), r.PathValue("userName"), middleware.CallerID(r.Context()))
	if err != nil {
		if errors.Is(err, service.ErrNoUserPosts) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "No posts found for this user")
		} else {
			log.Printf("ERROR list user posts: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

// Create accepts multipart/form-data with a textContent field and an
// optional image file. A plain JSON body {"textContent": "..."} also works
// for text-only posts.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	// Leave room for oversize files to reach the image store, which reports
	// the precise limit; anything larger is cut off here.
	r.Body = http.MaxBytesReader(w, r.Body, 2*h.maxUploadBytes+formMemory)

	var input service.CreatePostInput
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(formMemory); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeError(w, http.StatusBadRequest, "FILE_TOO_LARGE", "Upload is too large")
			} else {
				writeError(w, http.StatusBadRequest, "INVALID_FORM", "Invalid multipart form")
			}
			return
		}
		defer r.MultipartForm.RemoveAll()

		image, err := singleImage(r.MultipartForm)
		if err != nil {
			writeError(w, http.StatusBadRequest, "TOO_MANY_FILES", "Only one file, sent as image, may be attached")
			return
		}
		input.TextContent = r.FormValue("textContent")
		input.Image = image
	} else {
		var body struct {
			TextContent string `json:"textContent"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
			return
		}
		input.TextContent = body.TextContent
	}

	if errs := validator.ValidatePostText(input.TextContent); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	post, err := h.postService.Create(r.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyPost):
			writeError(w, http.StatusBadRequest, "MISSING_CONTENT", "A post needs text or an image")
		case errors.Is(err, upload.ErrUnsupportedType):
			writeError(w, http.StatusBadRequest, "INVALID_FILE_TYPE", "Only JPEG and PNG images are allowed")
		case errors.Is(err, upload.ErrTooLarge):
			writeError(w, http.StatusBadRequest, "FILE_TOO_LARGE", "Image exceeds the maximum upload size")
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unknown user")
		default:
			log.Printf("ERROR create post: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Post created",
		"post":    post,
	})
}

func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	postID, ok := parseID(w, r.PathValue("postId"))
	if !ok {
		return
	}

	res, err := h.postService.ToggleLike(r.Context(), postID, userID)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Post not found")
		} else {
			log.Printf("ERROR toggle like: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	message := "Like removed"
	if res.Liked {
		message = "Like added"
	}
	writeJSON(w, http.StatusOK, likeResponse{Message: message, Likes: res.Likes, LikedBy: res.LikedBy})
}

func parseID(w http.ResponseWriter, raw string) (int64, bool) {
	// Out-of-range ids parse fine and simply match no post.
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid post ID")
		return 0, false
	}
	return id, true
}

// singleImage allows at most one file in the whole form, sent as "image".
func singleImage(form *multipart.Form) (*multipart.FileHeader, error) {
	for field := range form.File {
		if field != "image" {
			return nil, upload.ErrTooManyFiles
		}
	}

	files := form.File["image"]
	switch len(files) {
	case 0:
		return nil, nil
	case 1:
		return files[0], nil
	default:
		return nil, upload.ErrTooManyFiles
	}
}
