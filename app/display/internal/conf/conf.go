package conf

type Bootstrap struct {
	Server *Server
	Data   *Data
	Auth   *Auth
	Radar  *Radar
}

type Auth struct {
	JwtKey string
}

type Radar struct {
	Llm           *LLM           `json:"llm"`
	Search        *Search        `json:"search"`
	Organizations []Organization `json:"organizations"`
	Log           *Log           `json:"log"`
	Concurrency   *Concurrency   `json:"concurrency"`
	Pipeline      *Pipeline      `json:"pipeline"`
	Db            *DB            `json:"db"`
}

type LLM struct {
	BaseUrl string `json:"base_url"`
	ApiKey  string `json:"api_key"`
	Model   string `json:"model"`
}

type Search struct {
	Provider string   `json:"provider"`
	Tavily   *Tavily  `json:"tavily"`
	Searxng  *SearXNG `json:"searxng"`
}

type Tavily struct {
	ApiKey string `json:"api_key"`
}

type SearXNG struct {
	BaseUrl string `json:"base_url"`
	Timeout int32  `json:"timeout"`
}

type Organization struct {
	Name         string          `json:"name"`
	Industry     string          `json:"industry"`
	Competitors  []Competitor    `json:"competitors"`
	Topics       []string        `json:"topics"`
	Goals        map[string]bool `json:"goals"`
	AnalysisType string          `json:"analysis_type"`
}

type Competitor struct {
	Name     string `json:"name"`
	Priority string `json:"priority"`
}

type Log struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

type Concurrency struct {
	CallIntervalMs int32 `json:"call_interval_ms"`
	Burst          int32 `json:"burst"`
}

type Pipeline struct {
	MaxOpportunities int32   `json:"max_opportunities"`
	MinConfidence    float64 `json:"min_confidence"`
	EnhanceTopN      int32   `json:"enhance_top_n"`
}

type DB struct {
	Host     string `json:"host"`
	Port     int32  `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type Server struct {
	Http *HTTP
}

type HTTP struct {
	Addr    string
	Timeout string
}

type Data struct {
	Database *Database
}

type Database struct {
	Driver string
	Source string
}
