package entities

// DownloadStats counts the per-port outcomes of a fetch-all pass.
type DownloadStats struct {
	Success int `json:"success"`
	Skip    int `json:"skip"`
	Fail    int `json:"fail"`
}

// RiskDistribution counts assessments per non-safe risk level.
type RiskDistribution struct {
	Danger  int `json:"danger"`
	Warning int `json:"warning"`
	Caution int `json:"caution"`
}

// TopRiskPort is one entry of the report's ranked port list.
type TopRiskPort struct {
	PortCode        string   `json:"port_code"`
	PortName        string   `json:"port_name"`
	Country         string   `json:"country"`
	RiskLevel       int      `json:"risk_level"`
	RiskLabel       string   `json:"risk_label"`
	MaxWindKts      float64  `json:"max_wind_kts"`
	MaxWindBft      int      `json:"max_wind_bft"`
	MaxWindTime     string   `json:"max_wind_time"`
	MaxGustKts      float64  `json:"max_gust_kts"`
	MaxGustBft      int      `json:"max_gust_bft"`
	MaxGustTime     string   `json:"max_gust_time"`
	MaxWave         float64  `json:"max_wave"`
	RiskFactors     []string `json:"risk_factors"`
	RiskPeriodCount int      `json:"risk_period_count"`
}

// RiskAnalysis summarizes the classification results of one run.
type RiskAnalysis struct {
	TotalRiskPorts   int              `json:"total_risk_ports"`
	RiskDistribution RiskDistribution `json:"risk_distribution"`
	TopRiskPorts     []TopRiskPort    `json:"top_risk_ports"`
}

// NotificationResult records whether the composed alert was delivered.
type NotificationResult struct {
	Sent      bool   `json:"sent"`
	Recipient string `json:"recipient"`
}

// RunReport is the persisted JSON summary of one monitoring run.
type RunReport struct {
	ExecutionTime string             `json:"execution_time"`
	DownloadStats DownloadStats      `json:"download_stats"`
	RiskAnalysis  RiskAnalysis       `json:"risk_analysis"`
	Notification  NotificationResult `json:"notification"`
}
