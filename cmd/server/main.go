package main

import (
	"flag"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/unitel-app/unitel/internal/app"
	"github.com/unitel-app/unitel/internal/handlers"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logger.Debug.Printf("No .env file loaded: %v", err)
	}

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to init service: %v", err)
	}
	defer service.Close()

	recordHandler := handlers.NewRecordHandler(service)

	http.HandleFunc("GET /api/v1/semesters", recordHandler.HandleListSemesters)
	http.HandleFunc("POST /api/v1/semesters", recordHandler.HandleCreateSemester)
	http.HandleFunc("PATCH /api/v1/semesters/{id}", recordHandler.HandleUpdateSemester)
	http.HandleFunc("DELETE /api/v1/semesters/{id}", recordHandler.HandleDeleteSemester)

	http.HandleFunc("GET /api/v1/semesters/{semesterID}/subjects", recordHandler.HandleListSubjects)
	http.HandleFunc("POST /api/v1/semesters/{semesterID}/subjects", recordHandler.HandleCreateSubject)
	http.HandleFunc("PATCH /api/v1/subjects/{id}", recordHandler.HandleUpdateSubject)
	http.HandleFunc("DELETE /api/v1/subjects/{id}", recordHandler.HandleDeleteSubject)

	http.HandleFunc("GET /api/v1/semesters/{semesterID}/attendance", recordHandler.HandleListAttendance)
	http.HandleFunc("POST /api/v1/semesters/{semesterID}/attendance", recordHandler.HandleCreateAttendance)
	http.HandleFunc("PATCH /api/v1/attendance/{id}", recordHandler.HandleUpdateAttendance)
	http.HandleFunc("DELETE /api/v1/attendance/{id}", recordHandler.HandleDeleteAttendance)

	http.HandleFunc("GET /api/v1/semesters/{semesterID}/marks", recordHandler.HandleListMarks)
	http.HandleFunc("POST /api/v1/semesters/{semesterID}/marks", recordHandler.HandleCreateMarks)
	http.HandleFunc("PATCH /api/v1/marks/{id}", recordHandler.HandleUpdateMarks)
	http.HandleFunc("DELETE /api/v1/marks/{id}", recordHandler.HandleDeleteMarks)

	http.HandleFunc("GET /api/v1/summary", recordHandler.HandleSummary)

	http.HandleFunc("POST /api/v1/import", recordHandler.HandleImport)
	http.HandleFunc("GET /api/v1/export", recordHandler.HandleExport)

	http.HandleFunc("GET /api/v1/exam-types", recordHandler.HandleListExamTypes)
	http.HandleFunc("POST /api/v1/exam-types", recordHandler.HandleAddExamType)
	http.HandleFunc("DELETE /api/v1/exam-types/{name}", recordHandler.HandleRemoveExamType)

	http.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting unitel server on %s", service.Config.Server.Port)
	logger.Debug.Println("Requiring headers:")
	for _, h := range service.Config.API.RequiredHeaders {
		logger.Debug.Printf("  %s: %s", h.Name, h.Value)
	}
	if err := http.ListenAndServe(service.Config.Server.Port, nil); err != nil {
		logger.Error.Fatalf("Unitel server failed: %v", err)
	}
}
