package server

import "github.com/prometheus/client_golang/prometheus"

var (
	documentsIngested = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pdfrag_documents_ingested_total",
		Help: "Documents processed by the ingestion pipeline, by terminal status.",
	}, []string{"status"})

	questionsAnswered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pdfrag_questions_total",
		Help: "Chat requests served, by mode and outcome.",
	}, []string{"mode", "outcome"})
)

func init() {
	prometheus.MustRegister(documentsIngested, questionsAnswered)
}
