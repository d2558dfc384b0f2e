package users

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"taskmarket/utils"
)

// UploadHandler stores a submission attachment in object storage and returns
// a presigned URL. The multipart field is "file"; "category" picks the size
// ceiling and MIME allow-list.
func UploadHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "file field is required"})
		return
	}
	defer file.Close()

	category := r.FormValue("category")
	if category == "" {
		category = "document"
	}
	contentType := header.Header.Get("Content-Type")
	if err := utils.ValidateUpload(category, contentType, header.Size); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: err.Error()})
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	objectName := fmt.Sprintf("attachments/%s/u%d/%d%s", category, user.ID, time.Now().UnixNano(), ext)

	url, err := utils.UploadToS3AndPresign(objectName, file, header.Size, 24*3600)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Upload failed"})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Uploaded",
		Data: map[string]interface{}{
			"object_name": objectName,
			"url":         url,
		},
	})
}
