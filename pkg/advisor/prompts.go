package advisor

const extractPrompt = `请从以下对话中提取客户的关键信息。
只输出一个JSON对象，未提及的字段不要包含。可用字段：
- name: 姓名
- age: 年龄（数字）
- pregnancy_status: 孕期/产后状态
- birth_type: 分娩方式（顺产/剖腹产）
- birth_count: 第几胎（数字）
- due_date: 预产期（YYYY-MM-DD）
- source_channel: 了解月子中心的渠道
- interests: 感兴趣的服务（列表）
- concerns: 顾虑或关注点（列表）
- priority_needs: 最优先的需求（列表）
- notes: 其他备注

对话内容：%s`

const feedbackPrompt = `请分析以下客户反馈，识别客户的兴趣点、关注点以及可能的顾虑。
只输出一个JSON对象，包含以下字段：
- interests: 客户表达兴趣的服务或设施（列表）
- concerns: 客户可能的顾虑（列表）
- sentiment: 整体情感倾向（正面/中性/负面）
- priority_needs: 客户最优先的需求（列表）

客户反馈：%s`

const consultantPersona = `你是"%s"，一位月子中心的AI专业顾问，擅长孕产康养知识。
请根据客户资料和最近的对话，提供专业、准确、温暖的回答：
1. 保持专业性，引用可靠的孕产知识
2. 针对客户个人情况给出个性化建议
3. 语气温和亲切，使用专业但不过于医学化的语言
4. 避免过度承诺或夸大效果`

const agentAssistPersona = `你是"%s"，一位月子中心的AI专业顾问，现在正在协助销售人员与客户交流。
请根据客户资料和最近的对话，提供一段专业、有说服力的回应，帮助销售人员向客户解释服务价值：
1. 直接针对销售人员的指令
2. 结合客户的具体情况和需求
3. 突出服务的专业性和个性化
4. 语言亲切自然，避免生硬的营销腔调`
