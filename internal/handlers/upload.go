package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/youredik/kubik/internal/imagestore"
)

type UploadHandler struct {
	Images *imagestore.Store
}

type uploadResponse struct {
	Success  bool     `json:"success"`
	Uploaded []string `json:"uploaded"`
	Errors   []string `json:"errors,omitempty"`
}

// Upload accepts one or more files under the "images" form field. Every
// file is validated and saved independently: one bad file never blocks the
// rest, and a failed derivative never undoes a saved original.
func (h *UploadHandler) Upload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "No files provided")
	}

	files := form.File["images"]
	if len(files) == 0 {
		return errorJSON(c, http.StatusBadRequest, "No files provided")
	}

	var (
		uploaded   []string
		fileErrors []string
	)

	for _, fh := range files {
		mediaType := fh.Header.Get("Content-Type")
		if !imagestore.ValidImageType(mediaType) {
			fileErrors = append(fileErrors, fmt.Sprintf("Invalid file type for %s: %s", fh.Filename, mediaType))
			continue
		}
		if fh.Size > imagestore.MaxFileSize {
			fileErrors = append(fileErrors, fmt.Sprintf("File too large: %s", fh.Filename))
			continue
		}

		src, err := fh.Open()
		if err != nil {
			fileErrors = append(fileErrors, fmt.Sprintf("Failed to process %s", fh.Filename))
			continue
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			fileErrors = append(fileErrors, fmt.Sprintf("Failed to process %s", fh.Filename))
			continue
		}

		filename := imagestore.GenerateFilename(fh.Filename)
		if err := h.Images.SaveOriginal(filename, data); err != nil {
			c.Logger().Errorf("Error saving %s: %v", fh.Filename, err)
			fileErrors = append(fileErrors, fmt.Sprintf("Failed to process %s", fh.Filename))
			continue
		}

		for _, res := range h.Images.Derive(filename, data) {
			if res.Err != nil {
				c.Logger().Errorf("Failed to create derivative %s: %v", res.Path, res.Err)
				fileErrors = append(fileErrors, fmt.Sprintf("Failed to create derivative for %s", fh.Filename))
			}
		}

		uploaded = append(uploaded, filename)
	}

	if len(uploaded) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "No files were successfully uploaded",
			"details": fileErrors,
		})
	}

	return c.JSON(http.StatusOK, uploadResponse{
		Success:  true,
		Uploaded: uploaded,
		Errors:   fileErrors,
	})
}
