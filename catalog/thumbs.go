package catalog

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"satchel/apperr"
	"satchel/db"
	"satchel/utils"

	"github.com/disintegration/imaging"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

const thumbWidth = 200

var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// UploadProductImage stores a product image and generates the thumbnail the
// cart attaches to line items at read time.
func UploadProductImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	productID := ps.ByName("productid")
	product, err := ProductByID(ctx, productID)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if product == nil {
		utils.RespondWithAppError(w, apperr.NotFound("product_not_found", "No product matches that ID."))
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondWithAppError(w, apperr.BadRequest("invalid_upload", "Could not parse the upload."))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		utils.RespondWithAppError(w, apperr.BadRequest("missing_image", "An image file is required."))
		return
	}
	defer file.Close()

	if !supportedImageTypes[header.Header.Get("Content-Type")] {
		utils.RespondWithAppError(w, apperr.BadRequest("unsupported_image", "Supported formats: JPEG, PNG, WebP, GIF."))
		return
	}

	buf, err := io.ReadAll(file)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		utils.RespondWithAppError(w, apperr.BadRequest("invalid_image", "The uploaded file is not a readable image."))
		return
	}

	imageName := productID + filepath.Ext(header.Filename)
	if err := saveImage(filepath.Join("static", "productpic", imageName), buf); err != nil {
		log.Println("UploadProductImage save error:", err)
		utils.RespondWithAppError(w, err)
		return
	}

	thumbName := productID + "-thumb.jpg"
	if err := saveThumbnail(filepath.Join("static", "productpic", thumbName), img); err != nil {
		log.Println("UploadProductImage thumbnail error:", err)
		utils.RespondWithAppError(w, err)
		return
	}

	update := bson.M{"$set": bson.M{
		"thumbnail":  thumbName,
		"updated_at": time.Now(),
	}, "$addToSet": bson.M{"images": imageName}}
	if _, err := db.ProductCollection.UpdateOne(ctx, bson.M{"product_id": productID}, update); err != nil {
		log.Println("UploadProductImage update error:", err)
		utils.RespondWithAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, map[string]string{
		"image":     imageName,
		"thumbnail": thumbName,
	})
}

func saveImage(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, data, 0o644)
}

func saveThumbnail(path string, img image.Image) error {
	resized := imaging.Resize(img, thumbWidth, 0, imaging.Lanczos) // maintain aspect ratio

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create thumbnail: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, resized, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	return nil
}
