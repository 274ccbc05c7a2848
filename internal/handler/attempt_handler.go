package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/satprep-api/internal/domain/entity"
	"github.com/yourusername/satprep-api/internal/handler/dto"
	apperrors "github.com/yourusername/satprep-api/internal/pkg/errors"
	"github.com/yourusername/satprep-api/internal/service"
)

// AttemptHandler обрабатывает запросы к журналу попыток
type AttemptHandler struct {
	attemptService *service.AttemptService
	testService    *service.TestService
}

// NewAttemptHandler создает новый обработчик попыток
func NewAttemptHandler(
	attemptService *service.AttemptService,
	testService *service.TestService,
) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		testService:    testService,
	}
}

// GetAttempt возвращает попытку с поэлементным разбором.
// Студент видит только свои попытки; правильные ответы включаются
// по настройке show_correct_answers теста (преподаватель видит всегда).
// GET /api/attempts/:id
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)
	userID := c.MustGet("user_id").(uint)
	isTeacher := c.GetBool("is_teacher")

	review, err := h.attemptService.BuildAttemptReview(attemptID, userID, isTeacher)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAttemptReviewResponse(review))
}

// ListMyAttempts возвращает попытки текущего студента по тесту
// GET /api/tests/:id/attempts/my
func (h *AttemptHandler) ListMyAttempts(c *gin.Context) {
	testID := c.MustGet("testID").(uint)
	userID := c.MustGet("user_id").(uint)

	attempts, err := h.attemptService.ListUserAttempts(userID, testID)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	responses := make([]*dto.AttemptResponse, 0, len(attempts))
	for i := range attempts {
		responses = append(responses, dto.NewAttemptResponse(&attempts[i]))
	}

	c.JSON(http.StatusOK, gin.H{"attempts": responses})
}

// ListTestAttempts возвращает попытки всех студентов по тесту
// GET /api/tests/:id/attempts?page=1&per_page=20
func (h *AttemptHandler) ListTestAttempts(c *gin.Context) {
	testID := c.MustGet("testID").(uint)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	attempts, total, err := h.attemptService.ListTestAttempts(testID, page, perPage)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	responses := make([]*dto.AttemptResponse, 0, len(attempts))
	for i := range attempts {
		responses = append(responses, dto.NewAttemptResponse(&attempts[i]))
	}

	c.JSON(http.StatusOK, dto.PaginatedAttemptResponse{
		Attempts: responses,
		Total:    total,
		Page:     page,
		PerPage:  perPage,
	})
}

// GetMyStats возвращает агрегированную статистику студента
// GET /api/me/stats
func (h *AttemptHandler) GetMyStats(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	stats, err := h.attemptService.GetUserStats(userID)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportTestAttempts экспортирует попытки теста в CSV или Excel формате
// GET /api/tests/:id/attempts/export?format=csv|xlsx
func (h *AttemptHandler) ExportTestAttempts(c *gin.Context) {
	testID := c.MustGet("testID").(uint)
	format := c.DefaultQuery("format", "csv")

	test, err := h.testService.GetTestByID(testID)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	// Все попытки без пагинации для экспорта
	attempts, err := h.attemptService.ListAllTestAttempts(testID)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	filename := fmt.Sprintf("test_%d_attempts_%s", testID, time.Now().Format("2006-01-02"))

	switch format {
	case "xlsx":
		h.exportXLSX(c, attempts, test, filename)
	default:
		h.exportCSV(c, attempts, test, filename)
	}
}

// exportCSV экспортирует попытки в CSV с правильным экранированием спецсимволов
func (h *AttemptHandler) exportCSV(c *gin.Context, attempts []entity.Attempt, test *entity.Test, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"Студент", "Попытка", "Процент", "Очки", "Всего очков", "Правильных", "Сдал", "Время (сек)", "Отправлено"})

	for _, a := range attempts {
		passed := "Нет"
		if a.Passed {
			passed = "Да"
		}
		writer.Write([]string{
			strconv.FormatUint(uint64(a.UserID), 10),
			strconv.Itoa(a.AttemptNumber),
			strconv.Itoa(a.Score),
			strconv.Itoa(a.PointsEarned),
			strconv.Itoa(a.TotalPoints),
			strconv.Itoa(a.CorrectCount),
			passed,
			strconv.Itoa(a.TimeSpentSeconds),
			a.SubmittedAt.Format(time.RFC3339),
		})
	}
}

// exportXLSX экспортирует попытки в Excel с использованием StreamWriter
func (h *AttemptHandler) exportXLSX(c *gin.Context, attempts []entity.Attempt, test *entity.Test, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Попытки"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[AttemptHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := []interface{}{"Студент", "Попытка", "Процент", "Очки", "Всего очков", "Правильных", "Сдал", "Время (сек)", "Отправлено"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[AttemptHandler] Ошибка записи заголовков: %v", err)
	}

	for i, a := range attempts {
		rowNum := i + 2 // Первая строка занята заголовками
		cell := fmt.Sprintf("A%d", rowNum)

		passed := "Нет"
		if a.Passed {
			passed = "Да"
		}

		row := []interface{}{a.UserID, a.AttemptNumber, a.Score, a.PointsEarned, a.TotalPoints, a.CorrectCount, passed, a.TimeSpentSeconds, a.SubmittedAt.Format(time.RFC3339)}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[AttemptHandler] Ошибка записи строки %d: %v", rowNum, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[AttemptHandler] Ошибка при Flush: %v", err)
	}

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[AttemptHandler] Ошибка записи Excel в response: %v", err)
	}
}

// handleAttemptError преобразует ошибки сервиса попыток в HTTP-статусы
func (h *AttemptHandler) handleAttemptError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in AttemptHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
